// Package schema defines the fixed GST invoice field schema the pipeline
// extracts, along with the synonym table used to reconcile model output that
// names fields differently. The schema is fixed at deploy time; the synonym
// table accepts additions through configuration.
package schema

import (
	"regexp"
	"strings"
)

// FieldKeys is the ordered list of canonical invoice-level fields.
var FieldKeys = []string{
	"Invoice_Number",
	"Invoice_Date",
	"Seller_GSTIN",
	"Seller_PAN",
	"Seller_Name",
	"Buyer_GSTIN",
	"Buyer_Name",
	"Buyer_PAN",
	"Ship_to_GSTIN",
	"Ship_to_Name",
	"Sub_Total_Amount",
	"Discount_Amount",
	"CGST_Amount",
	"SGST_Amount",
	"IGST_Amount",
	"CESS_Amount",
	"Additional_Cess_Amount",
	"Total_Tax_Amount",
	"IRN_Details",
}

// PresenceField is the field whose non-empty value marks a record as a real
// invoice under the exclude-missing aggregation policy.
const PresenceField = "Invoice_Number"

// defaultSynonyms maps each canonical field to aliases the model has been
// observed to emit instead.
var defaultSynonyms = map[string][]string{
	"Invoice_Number":         {"invoice_number", "invoice_no", "invoiceid", "invoice_id", "inv_no"},
	"Invoice_Date":           {"invoice_date", "date_of_invoice", "inv_date", "invoice_dt", "date"},
	"Seller_GSTIN":           {"seller_gstin", "supplier_gstin", "seller_gst", "supplier_gst"},
	"Seller_PAN":             {"seller_pan", "supplier_pan"},
	"Seller_Name":            {"seller_name", "supplier_name"},
	"Buyer_GSTIN":            {"buyer_gstin", "recipient_gstin", "bill_to_gstin"},
	"Buyer_Name":             {"buyer_name", "recipient_name", "bill_to_name"},
	"Buyer_PAN":              {"buyer_pan", "recipient_pan"},
	"Ship_to_GSTIN":          {"ship_to_gstin", "shipping_gstin", "consignee_gstin"},
	"Ship_to_Name":           {"ship_to_name", "shipping_name", "consignee_name"},
	"Sub_Total_Amount":       {"sub_total_amount", "subtotal_amount", "sub_total", "taxable_value", "taxable_amount"},
	"Discount_Amount":        {"discount_amount", "discount"},
	"CGST_Amount":            {"cgst_amount", "cgst"},
	"SGST_Amount":            {"sgst_amount", "sgst"},
	"IGST_Amount":            {"igst_amount", "igst"},
	"CESS_Amount":            {"cess_amount", "cess"},
	"Additional_Cess_Amount": {"additional_cess_amount", "additionalcessamount", "cess_additional_amount"},
	"Total_Tax_Amount":       {"total_tax_amount", "total_tax"},
	"IRN_Details":            {"irn_details", "irn", "ack_no", "irn_number"},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey lower-cases a field name and collapses every run of
// non-alphanumeric characters to a single underscore, so that camelCase,
// snake_case and spaced variants of the same name compare equal.
func NormalizeKey(k string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(k)), "_")
	return strings.Trim(s, "_")
}

// Table resolves canonical field names against their accepted aliases.
type Table struct {
	synonyms map[string][]string
}

// NewTable builds a synonym table from the compiled-in defaults plus any
// configured extras. Extra aliases are appended, never replacing defaults.
func NewTable(extra map[string][]string) *Table {
	syn := make(map[string][]string, len(defaultSynonyms))
	for field, aliases := range defaultSynonyms {
		syn[field] = append([]string(nil), aliases...)
	}
	for field, aliases := range extra {
		syn[field] = append(syn[field], aliases...)
	}
	return &Table{synonyms: syn}
}

// ParseSynonyms parses configured synonym extras of the form
// "Field:alias1:alias2,Other_Field:alias". Entries with no alias or no field
// name are dropped.
func ParseSynonyms(s string) map[string][]string {
	out := map[string][]string{}
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 {
			continue
		}
		field := strings.TrimSpace(parts[0])
		if field == "" {
			continue
		}
		for _, alias := range parts[1:] {
			if alias = strings.TrimSpace(alias); alias != "" {
				out[field] = append(out[field], alias)
			}
		}
	}
	return out
}

// Aliases returns the candidate keys for a canonical field, canonical name
// first. The returned slice is owned by the caller.
func (t *Table) Aliases(field string) []string {
	out := make([]string, 0, 1+len(t.synonyms[field]))
	out = append(out, field)
	out = append(out, t.synonyms[field]...)
	return out
}

// ConfidenceAliases returns the candidate keys for a field's confidence
// entry: the `<field>_confidence` forms plus each alias with the suffix.
func (t *Table) ConfidenceAliases(field string) []string {
	out := []string{
		field + "_Confidence",
		field + "_confidence",
		field + "Confidence",
	}
	for _, s := range t.synonyms[field] {
		out = append(out, s+"_confidence")
	}
	return out
}
