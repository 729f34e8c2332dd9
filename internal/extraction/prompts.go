package extraction

// extractionPrompt asks the model for a single strict JSON object describing
// the receipt. All validation of the response happens in Normalize.
const extractionPrompt = "You are a receipt parser for photos of retail receipts.\n\n" +
	"Task:\n" +
	"- Read the attached receipt photo.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a single JSON object.\n\n" +
	"The object must have exactly these fields:\n" +
	"- \"merchant\": string or null (the store or vendor name)\n" +
	"- \"total_amount\": number or null (the grand total actually paid)\n" +
	"- \"currency\": string or null (e.g. \"IDR\", \"USD\")\n" +
	"- \"date\": string or null, ISO format \"YYYY-MM-DD\" when possible\n\n" +
	"Rules:\n" +
	"- total_amount must be a number, never a string.\n" +
	"- If a field cannot be read from the photo, set it to null.\n" +
	"- Never guess a total from line items; use the printed total.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"
