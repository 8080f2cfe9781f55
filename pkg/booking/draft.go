// Package booking holds the booking draft built across the wizard steps, the
// step state machine that validates it, and the payload builders that turn a
// finished draft into what the booking store or the courier API accepts.
package booking

import (
	"strings"

	"p9e.in/logibook/pkg/rateengine"
)

type Flow string

const (
	FlowDomestic Flow = "domestic"
	FlowExport   Flow = "export"
	FlowImport   Flow = "import"
)

// International reports whether the flow crosses a border.
func (f Flow) International() bool {
	return f == FlowExport || f == FlowImport
}

type ShipmentType string

const (
	Document    ShipmentType = "DOCUMENT"
	NonDocument ShipmentType = "NON_DOCUMENT"
)

type Route struct {
	OriginPincode string `json:"originPincode"`
	OriginCity    string `json:"originCity"`
	OriginState   string `json:"originState"`
	DestPincode   string `json:"destPincode"`
	DestCity      string `json:"destCity"`
	DestState     string `json:"destState"`
	DestCountry   string `json:"destCountry,omitempty"`
	DestZipcode   string `json:"destZipcode,omitempty"`
}

type Shipment struct {
	Type ShipmentType `json:"type"`
	Route
}

type Units struct {
	Dimension rateengine.DimensionUnit `json:"dimension"`
	Weight    rateengine.WeightUnit    `json:"weight"`
}

// DocumentDetails is filled for DOCUMENT shipments only.
type DocumentDetails struct {
	Weight Number `json:"weight"`
}

// ParcelDetails is filled for NON_DOCUMENT shipments only.
type ParcelDetails struct {
	BoxesCount Int      `json:"boxesCount"`
	Rows       []BoxRow `json:"rows"`
}

type BoxRow struct {
	Qty     Int    `json:"qty"`
	Weight  Number `json:"weight"`
	Length  Number `json:"length"`
	Breadth Number `json:"breadth"`
	Height  Number `json:"height"`
}

func (r BoxRow) engineRow() rateengine.BoxRow {
	return rateengine.BoxRow{
		Qty:     float64(r.Qty),
		Weight:  r.Weight.Float(),
		Length:  r.Length.Float(),
		Breadth: r.Breadth.Float(),
		Height:  r.Height.Float(),
	}
}

type ExportDetails struct {
	InvoiceNo    string `json:"invoiceNo"`
	InvoiceDate  string `json:"invoiceDate"`
	InvoiceValue Number `json:"invoiceValue"`
	Currency     string `json:"currency"`
	IECode       string `json:"iecCode"`
	Purpose      string `json:"purpose"`
	Incoterm     string `json:"incoterm"`
}

type Extra struct {
	Units         Units            `json:"units"`
	Document      *DocumentDetails `json:"document,omitempty"`
	Parcel        *ParcelDetails   `json:"parcel,omitempty"`
	Goods         []GoodsRow       `json:"goods,omitempty"`
	Export        *ExportDetails   `json:"export,omitempty"`
	IsCOD         bool             `json:"isCOD"`
	CODAmount     Number           `json:"codAmount"`
	DeclaredValue Number           `json:"declaredValue"`
}

type Party struct {
	Name         string `json:"name"`
	Company      string `json:"company,omitempty"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	Pincode      string `json:"pincode"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country,omitempty"`
	GSTIN        string `json:"gstin,omitempty"`
}

// FileRef points at a stored upload.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

const DocTypeOther = "OTHER"

type DocumentRow struct {
	Type      string   `json:"type"`
	OtherName string   `json:"otherName,omitempty"`
	Number    string   `json:"number,omitempty"`
	File      *FileRef `json:"file,omitempty"`
}

// Label is the document name shown on payloads: the free-text name for
// OTHER documents, the type otherwise.
func (d DocumentRow) Label() string {
	if strings.EqualFold(d.Type, DocTypeOther) && strings.TrimSpace(d.OtherName) != "" {
		return strings.TrimSpace(d.OtherName)
	}
	return d.Type
}

type Addresses struct {
	Sender    Party         `json:"sender"`
	Receiver  Party         `json:"receiver"`
	Documents []DocumentRow `json:"documents"`
}

// Draft is the in-memory booking aggregate for one booking session.
type Draft struct {
	Flow         Flow                   `json:"flow"`
	Shipment     Shipment               `json:"shipment"`
	Extra        Extra                  `json:"extra"`
	Addresses    Addresses              `json:"addresses"`
	SelectedRate *rateengine.VendorRate `json:"selectedRate,omitempty"`
	PaymentMode  string                 `json:"paymentMode,omitempty"`
}

// NewDraft starts an empty draft for flow with CM/KG units.
func NewDraft(flow Flow) *Draft {
	return &Draft{
		Flow: flow,
		Extra: Extra{
			Units: Units{Dimension: rateengine.UnitCM, Weight: rateengine.UnitKG},
		},
	}
}

// SetShipmentType switches between the document and parcel variants and
// drops the fields of the other one.
func (d *Draft) SetShipmentType(t ShipmentType) {
	d.Shipment.Type = t
	switch t {
	case Document:
		d.Extra.Parcel = nil
		if d.Extra.Document == nil {
			d.Extra.Document = &DocumentDetails{}
		}
	case NonDocument:
		d.Extra.Document = nil
		if d.Extra.Parcel == nil {
			d.Extra.Parcel = &ParcelDetails{}
		}
	}
}

// SetBoxesCount records the declared box count and rebalances the rows so
// their quantities add up to it.
func (d *Draft) SetBoxesCount(n int) {
	if d.Extra.Parcel == nil {
		d.Extra.Parcel = &ParcelDetails{}
	}
	if n < 0 {
		n = 0
	}
	d.Extra.Parcel.BoxesCount = Int(n)
	d.Extra.Parcel.Rows = NormalizeBoxRows(d.Extra.Parcel.Rows, n)
}

// Weights groups the three weights every payload carries.
type Weights struct {
	Actual     float64 `json:"actual"`
	Volumetric float64 `json:"volumetric"`
	Chargeable float64 `json:"chargeable"`
}

func (d *Draft) engineRows() []rateengine.BoxRow {
	if d.Extra.Parcel == nil {
		return nil
	}
	rows := make([]rateengine.BoxRow, len(d.Extra.Parcel.Rows))
	for i, r := range d.Extra.Parcel.Rows {
		rows[i] = r.engineRow()
	}
	return rows
}

// Weights computes actual, volumetric and chargeable weight. Documents have
// a single declared weight and no volume.
func (d *Draft) Weights() Weights {
	var w Weights
	if d.Shipment.Type == Document {
		if d.Extra.Document != nil {
			w.Actual = d.Extra.Document.Weight.Float()
		}
	} else {
		rows := d.engineRows()
		w.Actual = rateengine.CalcActualWeightFromBoxes(rows)
		w.Volumetric = rateengine.CalcVolumetricWeight(string(d.Shipment.Type), rows,
			d.Extra.Units.Dimension, d.Extra.Units.Weight)
	}
	w.Chargeable = rateengine.CalcChargeableWeight(w.Actual, w.Volumetric)
	return w
}

// Pieces is the number of physical boxes, 1 for documents.
func (d *Draft) Pieces() int {
	if d.Shipment.Type == Document || d.Extra.Parcel == nil {
		return 1
	}
	total := 0
	for _, r := range d.Extra.Parcel.Rows {
		total += int(r.Qty)
	}
	return total
}

// RateQuery describes the draft for the rate engine.
func (d *Draft) RateQuery() rateengine.RateQuery {
	return rateengine.RateQuery{
		OriginPincode:    d.Shipment.OriginPincode,
		DestPincode:      d.Shipment.DestPincode,
		ShipmentType:     string(d.Shipment.Type),
		IsCOD:            d.Extra.IsCOD,
		ChargeableWeight: d.Weights().Chargeable,
	}
}
