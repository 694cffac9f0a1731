package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// InitialStockEntry supplies a product's opening stock for the day. Products
// omitted from the open request keep whatever current_stock they have.
type InitialStockEntry struct {
	ProductID    string `json:"product_id"    validate:"required,uuid"`
	InitialStock int    `json:"initial_stock" validate:"min=0"`
}

type OpenSessionRequest struct {
	InitialStocks []InitialStockEntry `json:"initialStocks" validate:"dive"`
}

type AdjustStockRequest struct {
	CurrentStock int `json:"current_stock" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// SessionStatusResponse answers the public "is the shop taking orders" probe.
// Status: open | closed | no-session-today.
type SessionStatusResponse struct {
	Status string `json:"status"`
}

type StockSnapshotResponse struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	InitialStock int    `json:"initial_stock"`
	FinalStock   *int   `json:"final_stock"`
}

type SessionResponse struct {
	SessionID   string                  `json:"session_id"`
	SessionDate string                  `json:"session_date"`
	Status      string                  `json:"status"`
	OpenedAt    string                  `json:"opened_at"`
	ClosedAt    *string                 `json:"closed_at"`
	Snapshots   []StockSnapshotResponse `json:"snapshots,omitempty"`
}
