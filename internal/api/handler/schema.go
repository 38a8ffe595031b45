package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Customers ---

type customerRequest struct {
	LastName  string `json:"lastname"  validate:"required,max=100"`
	FirstName string `json:"firstname" validate:"max=100"`
	Company   string `json:"company"   validate:"max=200"`
	Mail      string `json:"mail"      validate:"omitempty,email"`
	Phone     string `json:"phone"     validate:"max=15"`
	Mobile    string `json:"mobile"    validate:"max=15"`
	Notes     string `json:"notes"`
	Active    bool   `json:"active"`
}

type customerStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type customerResponse struct {
	ID        int64  `json:"id"`
	LastName  string `json:"lastname"`
	FirstName string `json:"firstname"`
	Company   string `json:"company"`
	Mail      string `json:"mail"`
	Phone     string `json:"phone"`
	Mobile    string `json:"mobile"`
	Notes     string `json:"notes"`
	Active    bool   `json:"active"`
}

// --- Orders ---

type orderRequest struct {
	Label        string  `json:"label"        validate:"required,max=100"`
	Address      string  `json:"adrEt"`
	NumberOfDays float64 `json:"numberOfDays" validate:"gte=0"`
	Tax          float64 `json:"tva"          validate:"gte=0"`
	Status       string  `json:"status"`
	Type         string  `json:"type"`
	Notes        string  `json:"notes"`
	CustomerID   int64   `json:"customerId"   validate:"required,gt=0"`
}

type orderResponse struct {
	ID           int64   `json:"id"`
	Label        string  `json:"label"`
	Address      string  `json:"adrEt"`
	NumberOfDays float64 `json:"numberOfDays"`
	Tax          float64 `json:"tva"`
	Status       string  `json:"status"`
	Type         string  `json:"type"`
	Notes        string  `json:"notes"`
	CustomerID   int64   `json:"customerId"`
}

// --- Users ---

type createUserRequest struct {
	Username string   `json:"username" validate:"required,max=30"`
	Password string   `json:"password" validate:"required,min=4"`
	Mail     string   `json:"mail"     validate:"omitempty,email"`
	Roles    []string `json:"roles"    validate:"omitempty,dive,oneof=ADMIN USER"`
}

type updateUserRequest struct {
	Username string `json:"username" validate:"required,max=30"`
	Password string `json:"password" validate:"required,min=4"`
	Mail     string `json:"mail"     validate:"omitempty,email"`
}

type userMailRequest struct {
	Mail string `json:"mail" validate:"required,email"`
}

type userResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Mail     string   `json:"mail"`
	Roles    []string `json:"roles"`
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}
