package enum

// NotificationType categorizes a workflow notification
type NotificationType string

const (
	NotificationValidationV1   NotificationType = "VALIDATION_V1"
	NotificationValidationV2   NotificationType = "VALIDATION_V2"
	NotificationTresorerie     NotificationType = "TRESORERIE"
	NotificationRejet          NotificationType = "REJET"
	NotificationPaiement       NotificationType = "PAIEMENT"
	NotificationEcheanceProche NotificationType = "ECHEANCE_PROCHE"
)

func (t NotificationType) String() string {
	return string(t)
}
