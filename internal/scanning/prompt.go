package scanning

// receiptScanPrompt is the shared prompt used by all model providers for reading grocery receipts
const receiptScanPrompt = `You are reading a photo of a grocery store receipt. Extract every purchased grocery item with its quantity.

Return a JSON array where each element has exactly these fields:
[
  {"name": "Milk", "quantity": 2},
  {"name": "Eggs", "quantity": 1}
]

Rules:
- "name" is the product name as a shopper would say it, without prices, codes or abbreviations where you can expand them
- "quantity" is the number of units bought, as a number (not a string); use 1 when the receipt does not show a count
- Skip totals, taxes, discounts, payment lines and bag fees
- If you cannot find any grocery items, return []
- Do not use markdown code blocks`
