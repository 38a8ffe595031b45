package domain

// Customer is a client of the business. It owns zero or more orders.
type Customer struct {
	ID        int64
	LastName  string
	FirstName string
	Company   string
	Mail      string
	Phone     string
	Mobile    string
	Notes     string
	Active    bool
}

// ApplyFrom overwrites every mutable field with the values from src.
// The identifier is left untouched.
func (c *Customer) ApplyFrom(src *Customer) {
	c.LastName = src.LastName
	c.FirstName = src.FirstName
	c.Company = src.Company
	c.Mail = src.Mail
	c.Phone = src.Phone
	c.Mobile = src.Mobile
	c.Notes = src.Notes
	c.Active = src.Active
}
