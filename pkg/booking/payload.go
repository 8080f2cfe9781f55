package booking

import (
	"strings"

	"p9e.in/logibook/pkg/rateengine"
)

type Place struct {
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Zipcode string `json:"zipcode,omitempty"`
}

type PayloadDocument struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	URL    string `json:"url"`
}

type PayloadVendor struct {
	Code             string              `json:"code"`
	Name             string              `json:"name"`
	TAT              string              `json:"tat"`
	ChargeableWeight float64             `json:"chargeableWeight"`
	Price            float64             `json:"price"`
	Breakup          []rateengine.Charge `json:"breakup"`
}

type PayloadBox struct {
	Qty     int     `json:"qty"`
	Weight  float64 `json:"weight"`
	Length  float64 `json:"length"`
	Breadth float64 `json:"breadth"`
	Height  float64 `json:"height"`
}

type PayloadGoods struct {
	BoxNo       int     `json:"boxNo"`
	Description string  `json:"description"`
	HSNCode     string  `json:"hsnCode"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// DomesticPayload is what a domestic booking is stored as.
type DomesticPayload struct {
	Flow          Flow              `json:"flow"`
	ShipmentType  ShipmentType      `json:"shipmentType"`
	Origin        Place             `json:"origin"`
	Destination   Place             `json:"destination"`
	Units         Units             `json:"units"`
	Weights       Weights           `json:"weights"`
	Pieces        int               `json:"pieces"`
	Boxes         []PayloadBox      `json:"boxes"`
	Goods         []PayloadGoods    `json:"goods"`
	Sender        Party             `json:"sender"`
	Receiver      Party             `json:"receiver"`
	Documents     []PayloadDocument `json:"documents"`
	Vendor        PayloadVendor     `json:"vendor"`
	IsCOD         bool              `json:"isCOD"`
	CODAmount     float64           `json:"codAmount"`
	DeclaredValue float64           `json:"declaredValue"`
	PaymentMode   string            `json:"paymentMode"`
}

func payloadBoxes(d *Draft) []PayloadBox {
	if d.Shipment.Type == Document || d.Extra.Parcel == nil {
		return []PayloadBox{}
	}
	out := make([]PayloadBox, len(d.Extra.Parcel.Rows))
	for i, r := range d.Extra.Parcel.Rows {
		out[i] = PayloadBox{
			Qty:     int(r.Qty),
			Weight:  r.Weight.Float(),
			Length:  r.Length.Float(),
			Breadth: r.Breadth.Float(),
			Height:  r.Height.Float(),
		}
	}
	return out
}

func payloadGoods(rows []GoodsRow) []PayloadGoods {
	out := make([]PayloadGoods, len(rows))
	for i, g := range rows {
		g.Recompute()
		out[i] = PayloadGoods{
			BoxNo:       max(int(g.BoxNo), 1),
			Description: strings.TrimSpace(g.Description),
			HSNCode:     strings.TrimSpace(g.HSNCode),
			Qty:         g.Qty.Float(),
			Unit:        strOr(g.Unit, "PCS"),
			Rate:        g.Rate.Float(),
			Amount:      g.Amount.Float(),
		}
	}
	return out
}

func payloadDocuments(docs []DocumentRow) []PayloadDocument {
	out := make([]PayloadDocument, 0, len(docs))
	for _, doc := range docs {
		if !hasFile(doc) {
			continue
		}
		out = append(out, PayloadDocument{
			Type:   doc.Type,
			Name:   doc.Label(),
			Number: doc.Number,
			URL:    doc.File.URL,
		})
	}
	return out
}

// BuildDomesticBookingPayload maps a completed domestic draft to the stored
// booking shape. Weights are recomputed from the box rows.
func BuildDomesticBookingPayload(d *Draft) DomesticPayload {
	s := d.Shipment
	p := DomesticPayload{
		Flow:         FlowDomestic,
		ShipmentType: s.Type,
		Origin: Place{
			Pincode: s.OriginPincode,
			City:    s.OriginCity,
			State:   s.OriginState,
			Country: "India",
		},
		Destination: Place{
			Pincode: s.DestPincode,
			City:    s.DestCity,
			State:   s.DestState,
			Country: "India",
		},
		Units:         d.Extra.Units,
		Weights:       d.Weights(),
		Pieces:        d.Pieces(),
		Boxes:         payloadBoxes(d),
		Goods:         payloadGoods(d.Extra.Goods),
		Sender:        d.Addresses.Sender,
		Receiver:      d.Addresses.Receiver,
		Documents:     payloadDocuments(d.Addresses.Documents),
		IsCOD:         d.Extra.IsCOD,
		DeclaredValue: d.Extra.DeclaredValue.Float(),
		PaymentMode:   strOr(d.PaymentMode, "prepaid"),
	}
	if d.Extra.IsCOD {
		p.CODAmount = d.Extra.CODAmount.Float()
	}
	if r := d.SelectedRate; r != nil {
		p.Vendor = PayloadVendor{
			Code:             r.VendorCode,
			Name:             r.VendorName,
			TAT:              r.TAT,
			ChargeableWeight: r.ChargeableWeight,
			Price:            r.Price,
			Breakup:          r.Breakup,
		}
	}
	return p
}
