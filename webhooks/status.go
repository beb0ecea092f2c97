package webhooks

import (
	"strings"

	"github.com/goliatone/go-delivery-relay/core"
)

var statusTable = map[string]core.DeliveryStatus{
	core.ProviderStatusDriverAssigned: core.DeliveryStatusDriverAssigned,
	core.ProviderStatusPickedUp:       core.DeliveryStatusPickedUp,
	core.ProviderStatusOnGoing:        core.DeliveryStatusOnGoing,
	core.ProviderStatusDelivered:      core.DeliveryStatusDelivered,
	core.ProviderStatusCanceled:       core.DeliveryStatusCanceled,
	core.ProviderStatusCompleted:      core.DeliveryStatusDelivered,
}

// MapStatus translates a provider lifecycle code into the internal status.
// Unknown codes fall back to "Assigning Driver". Any code may follow any prior
// status; there is no transition guard.
func MapStatus(providerStatus string) core.DeliveryStatus {
	if status, ok := statusTable[strings.TrimSpace(providerStatus)]; ok {
		return status
	}
	return core.DeliveryStatusAssigningDriver
}

func isCompletion(providerStatus string) bool {
	return strings.TrimSpace(providerStatus) == core.ProviderStatusCompleted
}
