package lalamove

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-delivery-relay/core"
)

const (
	DefaultSenderName  = "Default Sender"
	DefaultSenderPhone = "+639000000000"

	defaultRecipientName        = "Recipient %d"
	defaultRecipientPhonePrefix = "+63900000000"
)

// Coordinates keep the caller's JSON representation so numbers and numeric
// strings reach the provider unchanged.
type Coordinates struct {
	Lat json.RawMessage `json:"lat"`
	Lng json.RawMessage `json:"lng"`
}

type Stop struct {
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address"`
}

type QuotationRequest struct {
	ServiceType string `json:"serviceType"`
	Stops       []Stop `json:"stops"`
}

func (r QuotationRequest) Validate() error {
	if strings.TrimSpace(r.ServiceType) == "" || len(r.Stops) < 2 {
		return core.BadInput("serviceType and at least 2 stops are required.", map[string]any{
			"stops": len(r.Stops),
		})
	}
	return nil
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type QuotationStop struct {
	StopID string `json:"stopId,omitempty"`
}

type QuotationData struct {
	QuotationID string          `json:"quotationId,omitempty"`
	Stops       []QuotationStop `json:"stops"`
}

type OrderRequest struct {
	QuotationID   string         `json:"quotationId"`
	StopID        string         `json:"stopId"`
	Sender        *Contact       `json:"sender,omitempty"`
	Recipients    *Contact       `json:"recipients,omitempty"`
	Remarks       string         `json:"remarks,omitempty"`
	QuotationData *QuotationData `json:"quotationData"`
}

func (r OrderRequest) Validate() error {
	if r.QuotationData == nil {
		return core.BadInput("quotationData is required", nil)
	}
	return nil
}

type quotationEnvelope struct {
	Data quotationBody `json:"data"`
}

type quotationBody struct {
	ServiceType string `json:"serviceType"`
	Language    string `json:"language"`
	Stops       []Stop `json:"stops"`
}

type orderEnvelope struct {
	Data    orderBody `json:"data"`
	Remarks string    `json:"remarks,omitempty"`
}

type orderBody struct {
	QuotationID  string         `json:"quotationId,omitempty"`
	Sender       orderContact   `json:"sender"`
	Recipients   []orderContact `json:"recipients"`
	IsPODEnabled bool           `json:"isPODEnabled"`
}

type orderContact struct {
	StopID string `json:"stopId,omitempty"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

func buildQuotation(req QuotationRequest, language string) quotationEnvelope {
	stops := make([]Stop, 0, len(req.Stops))
	for _, stop := range req.Stops {
		stops = append(stops, Stop{
			Coordinates: Coordinates{Lat: rawOrNull(stop.Coordinates.Lat), Lng: rawOrNull(stop.Coordinates.Lng)},
			Address:     stop.Address,
		})
	}
	return quotationEnvelope{Data: quotationBody{
		ServiceType: req.ServiceType,
		Language:    language,
		Stops:       stops,
	}}
}

// buildOrder fills the sender from the request and one recipient per
// quotation stop after the first, substituting default contact values.
func buildOrder(req OrderRequest) orderEnvelope {
	sender := orderContact{
		StopID: req.StopID,
		Name:   DefaultSenderName,
		Phone:  DefaultSenderPhone,
	}
	if req.Sender != nil {
		sender.Name = firstNonEmpty(req.Sender.Name, sender.Name)
		sender.Phone = firstNonEmpty(req.Sender.Phone, sender.Phone)
	}

	recipients := make([]orderContact, 0)
	if req.QuotationData != nil && len(req.QuotationData.Stops) > 1 {
		for index, stop := range req.QuotationData.Stops[1:] {
			recipient := orderContact{
				StopID: stop.StopID,
				Name:   fmt.Sprintf(defaultRecipientName, index+1),
				Phone:  fmt.Sprintf("%s%d", defaultRecipientPhonePrefix, index+1),
			}
			if req.Recipients != nil {
				recipient.Name = firstNonEmpty(req.Recipients.Name, recipient.Name)
				recipient.Phone = firstNonEmpty(req.Recipients.Phone, recipient.Phone)
			}
			recipients = append(recipients, recipient)
		}
	}

	return orderEnvelope{
		Data: orderBody{
			QuotationID:  req.QuotationID,
			Sender:       sender,
			Recipients:   recipients,
			IsPODEnabled: true,
		},
		Remarks: req.Remarks,
	}
}

// Succeeded reports whether the provider accepted an order creation.
func Succeeded(res core.TransportResponse) bool {
	return res.StatusCode == http.StatusOK || res.StatusCode == http.StatusCreated
}

func rawOrNull(value json.RawMessage) json.RawMessage {
	if len(value) == 0 {
		return json.RawMessage("null")
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
