package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Service is an entry of the shop's catalog (haircut, beard trim, ...).
type Service struct {
	ID        string
	Name      string
	Category  string
	Price     decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Service) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.TrimSpace(s.Category)
	s.Price = s.Price.Round(2)
}

func (s Service) Validate() error {
	var v ValidationError
	if s.Name == "" {
		v.Add("nombre_servicio", "es obligatorio")
	}
	if s.Category == "" {
		v.Add("categoria", "es obligatoria")
	}
	if s.Price.IsNegative() {
		v.Add("precio", "no puede ser negativo")
	}
	return v.Err()
}
