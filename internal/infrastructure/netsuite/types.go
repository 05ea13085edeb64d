package netsuite

import (
	"encoding/json"
	"strings"
)

// Wire shapes for the NetSuite REST record API. Record ids arrive as strings
// and monetary values as JSON numbers; both are normalized by the mapper.

// wireRef is a record reference, e.g. {"id":"88","refName":"Acme Textiles"}.
type wireRef struct {
	ID      string `json:"id"`
	RefName string `json:"refName"`
}

// vendorRecord is one vendor entity record.
type vendorRecord struct {
	ID          string      `json:"id"`
	EntityID    string      `json:"entityId"`
	CompanyName string      `json:"companyName"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Currency    *wireRef    `json:"currency"`
	Subsidiary  *wireRef    `json:"subsidiary"`
	Terms       *wireRef    `json:"terms"`
	Balance     json.Number `json:"balance"`
	IsInactive  bool        `json:"isInactive"`
}

// vendorListResponse is the paginated vendor listing envelope.
type vendorListResponse struct {
	Items        []vendorRecord `json:"items"`
	Count        int            `json:"count"`
	HasMore      bool           `json:"hasMore"`
	Offset       int            `json:"offset"`
	TotalResults int64          `json:"totalResults"`
}

// itemRecord is one inventory item record.
type itemRecord struct {
	ID          string      `json:"id"`
	ItemID      string      `json:"itemId"`
	DisplayName string      `json:"displayName"`
	Description string      `json:"salesDescription"`
	BasePrice   json.Number `json:"basePrice"`
	Vendor      *wireRef    `json:"vendor"`
	IsInactive  bool        `json:"isInactive"`
}

// itemListResponse is the paginated item listing envelope.
type itemListResponse struct {
	Items        []itemRecord `json:"items"`
	Count        int          `json:"count"`
	HasMore      bool         `json:"hasMore"`
	Offset       int          `json:"offset"`
	TotalResults int64        `json:"totalResults"`
}

// poLineRecord is one purchase order line.
type poLineRecord struct {
	Line     int64       `json:"line"`
	Item     *wireRef    `json:"item"`
	Quantity json.Number `json:"quantity"`
	Rate     json.Number `json:"rate"`
	Amount   json.Number `json:"amount"`
}

// poLineSublist wraps the item sublist of a purchase order.
type poLineSublist struct {
	Items []poLineRecord `json:"items"`
}

// purchaseOrderRecord is one purchase order transaction, including the
// custom body fields the portal writes back.
type purchaseOrderRecord struct {
	ID       string         `json:"id"`
	TranID   string         `json:"tranId"`
	Status   *wireRef       `json:"status"`
	Entity   *wireRef       `json:"entity"`
	Location *wireRef       `json:"location"`
	Currency *wireRef       `json:"currency"`
	Total    json.Number    `json:"total"`
	TranDate string         `json:"tranDate"`
	DueDate  string         `json:"dueDate"`
	Memo     string         `json:"memo"`
	Item     *poLineSublist `json:"item"`

	VesselName   *string `json:"custbody_vessel_name"`
	VesselNumber *string `json:"custbody_vessel_number"`
	FactoryDate  *string `json:"custbody_factory_date"`
	PortETA      *string `json:"custbody_port_eta"`
	DeliveryETA  *string `json:"custbody_delivery_eta"`
	ShipDate     *string `json:"custbody_ship_date"`
}

// poListResponse is the paginated purchase order listing envelope.
type poListResponse struct {
	Items        []purchaseOrderRecord `json:"items"`
	Count        int                   `json:"count"`
	HasMore      bool                  `json:"hasMore"`
	Offset       int                   `json:"offset"`
	TotalResults int64                 `json:"totalResults"`
}

// errorDetail is one entry of NetSuite's error detail list.
type errorDetail struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"o:errorCode"`
}

// errorResponse is the problem document NetSuite returns on failures.
type errorResponse struct {
	Type         string        `json:"type"`
	Title        string        `json:"title"`
	Status       int           `json:"status"`
	ErrorDetails []errorDetail `json:"o:errorDetails"`
}

// message joins the error details into one line for logs and wrapped errors.
func (e *errorResponse) message() string {
	if len(e.ErrorDetails) == 0 {
		return e.Title
	}
	parts := make([]string, 0, len(e.ErrorDetails))
	for _, d := range e.ErrorDetails {
		if d.ErrorCode != "" {
			parts = append(parts, d.ErrorCode+": "+d.Detail)
		} else {
			parts = append(parts, d.Detail)
		}
	}
	return strings.Join(parts, "; ")
}
