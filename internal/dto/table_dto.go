package dto

type CreateTableRequest struct {
	TableNumber int `json:"table_number" validate:"required,min=1"`
}

type TableResponse struct {
	ID          string `json:"id"`
	TableNumber int    `json:"table_number"`
	QRToken     string `json:"qr_token"`
}
