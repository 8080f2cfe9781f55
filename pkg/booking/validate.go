package booking

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	pincodeRE = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phoneRE   = regexp.MustCompile(`^\+?[0-9]{10,13}$`)
	hsnRE     = regexp.MustCompile(`^[0-9]{4,8}$`)
)

// MandatoryKYCDocs is how many leading document rows an export booking must fill.
const MandatoryKYCDocs = 2

var (
	errBoxCount     = validation.NewError("validation_box_count", "box quantities must add up to the box count")
	errGoodsMissing = validation.NewError("validation_goods_required", "at least one goods row is required")
	errDocsMissing  = validation.NewError("validation_documents_required", "at least one document is required")
)

// StepError lists the fields that block leaving a step, keyed by their path
// in the draft (e.g. "extra.parcel.rows.0.length").
type StepError struct {
	Step   Step
	Fields validation.Errors
}

func (e *StepError) Error() string {
	return fmt.Sprintf("booking: step %s incomplete: %v", e.Step, e.Fields)
}

// MissingFields flattens the field errors into path -> message.
func (e *StepError) MissingFields() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		if v != nil {
			out[k] = v.Error()
		}
	}
	return out
}

func stepErr(s Step, errs validation.Errors) error {
	if err := errs.Filter(); err != nil {
		return &StepError{Step: s, Fields: err.(validation.Errors)}
	}
	return nil
}

func positive(v float64) error {
	return validation.Validate(v, validation.Required, validation.Min(0.0).Exclusive())
}

func validateRoute(d *Draft) error {
	s := d.Shipment
	errs := validation.Errors{
		"shipment.originPincode": validation.Validate(s.OriginPincode, validation.Required, validation.Match(pincodeRE)),
		"shipment.originCity":    validation.Validate(s.OriginCity, validation.Required),
		"shipment.originState":   validation.Validate(s.OriginState, validation.Required),
	}
	if d.Flow.International() {
		errs["shipment.destCountry"] = validation.Validate(s.DestCountry, validation.Required)
		errs["shipment.destZipcode"] = validation.Validate(s.DestZipcode, validation.Required, validation.Length(3, 10))
	} else {
		errs["shipment.destPincode"] = validation.Validate(s.DestPincode, validation.Required, validation.Match(pincodeRE))
		errs["shipment.destCity"] = validation.Validate(s.DestCity, validation.Required)
		errs["shipment.destState"] = validation.Validate(s.DestState, validation.Required)
	}
	return stepErr(StepRoute, errs)
}

func validateShipment(d *Draft) error {
	errs := validation.Errors{
		"shipment.type": validation.Validate(string(d.Shipment.Type), validation.Required,
			validation.In(string(Document), string(NonDocument))),
		"extra.units.dimension": validation.Validate(string(d.Extra.Units.Dimension), validation.Required,
			validation.In("CM", "INCH")),
		"extra.units.weight": validation.Validate(string(d.Extra.Units.Weight), validation.Required,
			validation.In("KG", "GM")),
	}

	switch d.Shipment.Type {
	case Document:
		if d.Extra.Document == nil {
			errs["extra.document.weight"] = validation.ErrRequired
		} else {
			errs["extra.document.weight"] = positive(d.Extra.Document.Weight.Float())
		}
	case NonDocument:
		p := d.Extra.Parcel
		if p == nil {
			errs["extra.parcel.boxesCount"] = validation.ErrRequired
			break
		}
		errs["extra.parcel.boxesCount"] = validation.Validate(p.BoxesCount, validation.Required, validation.Min(1))
		sum := 0
		for i, r := range p.Rows {
			key := fmt.Sprintf("extra.parcel.rows.%d.", i)
			errs[key+"qty"] = validation.Validate(r.Qty, validation.Required, validation.Min(1))
			errs[key+"weight"] = positive(r.Weight.Float())
			errs[key+"length"] = positive(r.Length.Float())
			errs[key+"breadth"] = positive(r.Breadth.Float())
			errs[key+"height"] = positive(r.Height.Float())
			sum += int(r.Qty)
		}
		if p.BoxesCount > 0 && sum != int(p.BoxesCount) {
			errs["extra.parcel.rows"] = errBoxCount
		}
	}

	if d.Flow == FlowExport {
		if len(d.Extra.Goods) == 0 {
			errs["extra.goods"] = errGoodsMissing
		}
		for i, g := range d.Extra.Goods {
			key := fmt.Sprintf("extra.goods.%d.", i)
			errs[key+"description"] = validation.Validate(g.Description, validation.Required)
			errs[key+"hsnCode"] = validation.Validate(g.HSNCode, validation.Required, validation.Match(hsnRE))
			errs[key+"qty"] = positive(g.Qty.Float())
			errs[key+"rate"] = positive(g.Rate.Float())
		}
		if d.Extra.Export == nil {
			errs["extra.export.invoiceNo"] = validation.ErrRequired
		} else {
			errs["extra.export.invoiceNo"] = validation.Validate(d.Extra.Export.InvoiceNo, validation.Required)
			errs["extra.export.currency"] = validation.Validate(d.Extra.Export.Currency, validation.Required, validation.Length(3, 3))
		}
	}
	return stepErr(StepShipment, errs)
}

func validateParty(errs validation.Errors, prefix string, p Party, domestic bool) {
	errs[prefix+"name"] = validation.Validate(p.Name, validation.Required)
	errs[prefix+"phone"] = validation.Validate(p.Phone, validation.Required, validation.Match(phoneRE))
	errs[prefix+"email"] = validation.Validate(p.Email, is.EmailFormat)
	errs[prefix+"addressLine1"] = validation.Validate(p.AddressLine1, validation.Required)
	errs[prefix+"city"] = validation.Validate(p.City, validation.Required)
	if domestic {
		errs[prefix+"pincode"] = validation.Validate(p.Pincode, validation.Required, validation.Match(pincodeRE))
	} else {
		errs[prefix+"pincode"] = validation.Validate(p.Pincode, validation.Required)
		errs[prefix+"country"] = validation.Validate(p.Country, validation.Required)
	}
}

func hasFile(doc DocumentRow) bool {
	return doc.File != nil && strings.TrimSpace(doc.File.URL) != ""
}

func validateParties(d *Draft) error {
	errs := validation.Errors{}
	a := d.Addresses
	validateParty(errs, "addresses.sender.", a.Sender, true)
	validateParty(errs, "addresses.receiver.", a.Receiver, !d.Flow.International())

	for i, doc := range a.Documents {
		if strings.EqualFold(doc.Type, DocTypeOther) {
			errs[fmt.Sprintf("addresses.documents.%d.otherName", i)] = validation.Validate(doc.OtherName, validation.Required)
		}
	}

	if d.Flow.International() {
		for i := 0; i < MandatoryKYCDocs; i++ {
			key := fmt.Sprintf("addresses.documents.%d.", i)
			if i >= len(a.Documents) {
				errs[key+"type"] = validation.ErrRequired
				errs[key+"file"] = validation.ErrRequired
				continue
			}
			errs[key+"type"] = validation.Validate(a.Documents[i].Type, validation.Required)
			if !hasFile(a.Documents[i]) {
				errs[key+"file"] = validation.ErrRequired
			}
		}
	} else {
		uploaded := 0
		for _, doc := range a.Documents {
			if hasFile(doc) {
				uploaded++
			}
		}
		if uploaded == 0 {
			errs["addresses.documents"] = errDocsMissing
		}
	}
	return stepErr(StepParties, errs)
}

func validateRate(d *Draft) error {
	errs := validation.Errors{}
	if d.SelectedRate == nil || strings.TrimSpace(d.SelectedRate.VendorCode) == "" {
		errs["selectedRate"] = validation.ErrRequired
	}
	return stepErr(StepRate, errs)
}
