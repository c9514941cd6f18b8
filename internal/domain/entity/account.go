package entity

import "time"

// Account representa uma conta (restaurante) do sistema. Todo dado fiscal é
// escopado por ela: configuração, cupons e trilha de transmissão.
type Account struct {
	ID        string
	Name      string
	CNPJ      string // CNPJ da conta, com ou sem formatação
	Address   string
	Phone     string
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
