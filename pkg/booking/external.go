package booking

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Credentials authenticate against the courier API. They come from
// configuration and are placed in every outgoing payload.
type Credentials struct {
	Username string
	Password string
}

type ExternalParty struct {
	Name     string `json:"name"`
	Company  string `json:"company_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address1 string `json:"address_line1"`
	Address2 string `json:"address_line2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Country  string `json:"country"`
}

type ExternalBox struct {
	BoxNo   string `json:"box_no"`
	Length  string `json:"length"`
	Breadth string `json:"breadth"`
	Height  string `json:"height"`
	Weight  string `json:"weight"`
}

type ExternalItem struct {
	BoxNo       string `json:"box_no"`
	Description string `json:"description"`
	HSNCode     string `json:"hsn_code"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

type ExternalDocument struct {
	Type   string `json:"doc_type"`
	Name   string `json:"doc_name"`
	Number string `json:"doc_number"`
	URL    string `json:"doc_url"`
}

// ExternalPayload is the courier API booking request. Every scalar is a
// string; numbers carry two decimals and blanks fall back to "0" or "NA".
type ExternalPayload struct {
	Username           string             `json:"username"`
	Password           string             `json:"password"`
	ServiceType        string             `json:"service_type"`
	ShipmentType       string             `json:"shipment_type"`
	OriginPincode      string             `json:"origin_pincode"`
	DestinationCountry string             `json:"destination_country"`
	DestinationZipcode string             `json:"destination_zipcode"`
	Pieces             string             `json:"no_of_pieces"`
	ActualWeight       string             `json:"actual_weight"`
	VolumetricWeight   string             `json:"volumetric_weight"`
	ChargeableWeight   string             `json:"chargeable_weight"`
	DimensionUnit      string             `json:"dimension_unit"`
	WeightUnit         string             `json:"weight_unit"`
	InvoiceNo          string             `json:"invoice_no"`
	InvoiceDate        string             `json:"invoice_date"`
	InvoiceValue       string             `json:"invoice_value"`
	Currency           string             `json:"currency"`
	IECode             string             `json:"iec_code"`
	Purpose            string             `json:"purpose"`
	Incoterm           string             `json:"incoterm"`
	Shipper            ExternalParty      `json:"shipper"`
	Consignee          ExternalParty      `json:"consignee"`
	Boxes              []ExternalBox      `json:"boxes"`
	Items              []ExternalItem     `json:"items"`
	KYC                []ExternalDocument `json:"kyc_documents"`
}

func externalParty(p Party, defaultCountry string) ExternalParty {
	return ExternalParty{
		Name:     strOr(p.Name, "NA"),
		Company:  strOr(p.Company, "NA"),
		Phone:    strOr(p.Phone, "NA"),
		Email:    strOr(p.Email, "NA"),
		Address1: strOr(p.AddressLine1, "NA"),
		Address2: strOr(p.AddressLine2, "NA"),
		City:     strOr(p.City, "NA"),
		State:    strOr(p.State, "NA"),
		Pincode:  strOr(p.Pincode, "NA"),
		Country:  strOr(p.Country, defaultCountry),
	}
}

// BuildExternalBookingPayload maps an export draft to the courier API shape.
func BuildExternalBookingPayload(d *Draft, creds Credentials) ExternalPayload {
	w := d.Weights()
	exp := ExportDetails{}
	if d.Extra.Export != nil {
		exp = *d.Extra.Export
	}
	invoiceValue := exp.InvoiceValue.Float()
	if invoiceValue == 0 {
		invoiceValue = GoodsTotal(recomputed(d.Extra.Goods))
	}

	shipmentType := "NDOX"
	if d.Shipment.Type == Document {
		shipmentType = "DOX"
	}

	p := ExternalPayload{
		Username:           creds.Username,
		Password:           creds.Password,
		ServiceType:        strings.ToUpper(string(d.Flow)),
		ShipmentType:       shipmentType,
		OriginPincode:      strOr(d.Shipment.OriginPincode, "NA"),
		DestinationCountry: strOr(d.Shipment.DestCountry, "NA"),
		DestinationZipcode: strOr(d.Shipment.DestZipcode, "NA"),
		Pieces:             strconv.Itoa(d.Pieces()),
		ActualWeight:       format2(w.Actual),
		VolumetricWeight:   format2(w.Volumetric),
		ChargeableWeight:   format2(w.Chargeable),
		DimensionUnit:      strOr(string(d.Extra.Units.Dimension), "CM"),
		WeightUnit:         strOr(string(d.Extra.Units.Weight), "KG"),
		InvoiceNo:          strOr(exp.InvoiceNo, "NA"),
		InvoiceDate:        strOr(exp.InvoiceDate, "NA"),
		InvoiceValue:       format2(invoiceValue),
		Currency:           strOr(strings.ToUpper(exp.Currency), "INR"),
		IECode:             strOr(exp.IECode, "NA"),
		Purpose:            strOr(exp.Purpose, "NA"),
		Incoterm:           strOr(exp.Incoterm, "NA"),
		Shipper:            externalParty(d.Addresses.Sender, "India"),
		Consignee:          externalParty(d.Addresses.Receiver, strOr(d.Shipment.DestCountry, "NA")),
		Boxes:              []ExternalBox{},
		Items:              []ExternalItem{},
		KYC:                []ExternalDocument{},
	}

	boxNo := 1
	for _, b := range payloadBoxes(d) {
		for i := 0; i < b.Qty; i++ {
			p.Boxes = append(p.Boxes, ExternalBox{
				BoxNo:   strconv.Itoa(boxNo),
				Length:  format2(b.Length),
				Breadth: format2(b.Breadth),
				Height:  format2(b.Height),
				Weight:  format2(b.Weight),
			})
			boxNo++
		}
	}

	for _, g := range payloadGoods(d.Extra.Goods) {
		p.Items = append(p.Items, ExternalItem{
			BoxNo:       strconv.Itoa(g.BoxNo),
			Description: strOr(g.Description, "NA"),
			HSNCode:     strOr(g.HSNCode, "0"),
			Quantity:    format2(g.Qty),
			Unit:        g.Unit,
			Rate:        format2(g.Rate),
			Amount:      format2(g.Amount),
		})
	}

	for _, doc := range payloadDocuments(d.Addresses.Documents) {
		p.KYC = append(p.KYC, ExternalDocument{
			Type:   strOr(doc.Type, "NA"),
			Name:   strOr(doc.Name, "NA"),
			Number: strOr(doc.Number, "NA"),
			URL:    doc.URL,
		})
	}
	return p
}

func recomputed(rows []GoodsRow) []GoodsRow {
	out := append([]GoodsRow(nil), rows...)
	RecomputeGoods(out)
	return out
}

// Redacted returns a copy without the credentials, for storage and logs.
func (p ExternalPayload) Redacted() ExternalPayload {
	p.Username = ""
	p.Password = ""
	return p
}

// FormFields flattens the payload into multipart form fields. Scalars are sent
// as-is; lists and nested objects are sent as JSON strings.
func (p ExternalPayload) FormFields() (map[string]string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	fields := make(map[string]string, len(generic))
	for k, v := range generic {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			fields[k] = s
			continue
		}
		fields[k] = string(v)
	}
	return fields, nil
}
