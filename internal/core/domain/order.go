package domain

// Order is a piece of work sold to a customer. CustomerID is a plain reference;
// the order does not own the customer's lifecycle.
type Order struct {
	ID           int64
	Label        string
	Address      string
	Type         string
	Status       string
	Notes        string
	Tax          float64
	NumberOfDays float64
	CustomerID   int64
}

// ApplyFrom overwrites every mutable field, including the customer
// reference, with the values from src.
func (o *Order) ApplyFrom(src *Order) {
	o.Label = src.Label
	o.Address = src.Address
	o.NumberOfDays = src.NumberOfDays
	o.Tax = src.Tax
	o.Status = src.Status
	o.Type = src.Type
	o.Notes = src.Notes
	o.CustomerID = src.CustomerID
}
