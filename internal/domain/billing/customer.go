package billing

import "time"

// PaymentMethodInfo is immutable once created; there is no update operation.
type PaymentMethodInfo struct {
	ID       string
	Type     PaymentMethodType
	LastFour string
	Brand    string
	ExpMonth int
	ExpYear  int
	Metadata map[string]string
}

func NewPaymentMethodInfo(id string, methodType PaymentMethodType, lastFour, brand string, expMonth, expYear int, metadata map[string]string) (*PaymentMethodInfo, error) {
	if id == "" {
		return nil, newValidation("payment method id is required")
	}
	if !methodType.Valid() {
		return nil, newValidation("unknown payment method type %q", methodType)
	}
	return &PaymentMethodInfo{
		ID:       id,
		Type:     methodType,
		LastFour: lastFour,
		Brand:    brand,
		ExpMonth: expMonth,
		ExpYear:  expYear,
		Metadata: cloneMetadata(metadata),
	}, nil
}

func (m *PaymentMethodInfo) Clone() *PaymentMethodInfo {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Metadata = cloneMetadata(m.Metadata)
	return &clone
}

type Customer struct {
	ID                   string
	Email                string
	Name                 string
	PaymentMethods       []*PaymentMethodInfo
	DefaultPaymentMethod string
	Metadata             map[string]string
	CreatedAt            time.Time
}

func NewCustomer(id, email, name string, metadata map[string]string, now time.Time) (*Customer, error) {
	if id == "" {
		return nil, newValidation("customer id is required")
	}
	if email == "" {
		return nil, newValidation("email is required")
	}
	return &Customer{
		ID:        id,
		Email:     email,
		Name:      name,
		Metadata:  cloneMetadata(metadata),
		CreatedAt: now,
	}, nil
}

// AddPaymentMethod appends the method; the first method added becomes the
// default when none is set yet.
func (c *Customer) AddPaymentMethod(m *PaymentMethodInfo) {
	c.PaymentMethods = append(c.PaymentMethods, m)
	if c.DefaultPaymentMethod == "" {
		c.DefaultPaymentMethod = m.ID
	}
}

// HasPaymentMethod reports whether the given id is registered on the customer.
func (c *Customer) HasPaymentMethod(id string) bool {
	for _, m := range c.PaymentMethods {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Metadata = cloneMetadata(c.Metadata)
	if c.PaymentMethods != nil {
		clone.PaymentMethods = make([]*PaymentMethodInfo, len(c.PaymentMethods))
		for i, m := range c.PaymentMethods {
			clone.PaymentMethods[i] = m.Clone()
		}
	}
	return &clone
}

func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	clone := make(map[string]string, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
