package schema

// ExtractionPrompt is the instruction text sent with every invoice-level
// extraction request. The embedded JSON mirrors FieldKeys exactly; the two
// must change together.
const ExtractionPrompt = `You are an expert invoice parser for Indian GST invoices.
Extract ONLY the following invoice-level fields from the provided document and return JSON only.
Schema must be exactly:
{
  "fields": {
    "Invoice_Number": "",
    "Invoice_Date": "",
    "Seller_GSTIN": "",
    "Seller_PAN": "",
    "Seller_Name": "",
    "Buyer_GSTIN": "",
    "Buyer_Name": "",
    "Buyer_PAN": "",
    "Ship_to_GSTIN": "",
    "Ship_to_Name": "",
    "Sub_Total_Amount": 0,
    "Discount_Amount": 0,
    "CGST_Amount": 0,
    "SGST_Amount": 0,
    "IGST_Amount": 0,
    "CESS_Amount": 0,
    "Additional_Cess_Amount": 0,
    "Total_Tax_Amount": 0,
    "IRN_Details": ""
  },
  "fields_confidence": {
    "Invoice_Number": 0,
    "Invoice_Date": 0,
    "Seller_GSTIN": 0,
    "Seller_PAN": 0,
    "Seller_Name": 0,
    "Buyer_GSTIN": 0,
    "Buyer_Name": 0,
    "Buyer_PAN": 0,
    "Ship_to_GSTIN": 0,
    "Ship_to_Name": 0,
    "Sub_Total_Amount": 0,
    "Discount_Amount": 0,
    "CGST_Amount": 0,
    "SGST_Amount": 0,
    "IGST_Amount": 0,
    "CESS_Amount": 0,
    "Additional_Cess_Amount": 0,
    "Total_Tax_Amount": 0,
    "IRN_Details": 0
  }
}
Instructions:
- Return ONLY JSON, no prose, code fences, or comments.
- Confidence scores must be floats between 0 and 1 for each field in fields_confidence.
- Dates must be in YYYY-MM-DD format.
- Amount fields must be numbers (not strings), in the invoice currency.
- If a field is missing on the invoice, leave it as an empty string (for text fields) or 0 (for numeric).
- Do NOT include any additional keys (no line_items, no extra metadata).`

// BuildPrompt returns the extraction prompt for invoice documents.
func BuildPrompt() string {
	return ExtractionPrompt
}
