package model

type Publisher struct {
	ID          int    `json:"id"`
	UserID      *int   `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"publisher_description"`
	Email       string `json:"business_email"`
	Phone       string `json:"business_phone"`
	Address     string `json:"business_address"`
	Website     string `json:"website"`
	LogoURL     string `json:"logoUrl"`
}
