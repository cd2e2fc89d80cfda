package models

// Payment is a row of the payments table. Embedded Users and Posts are
// filled when the query selects them; a reservation is a payment with both.
type Payment struct {
	ID              ID       `json:"id"`
	PostID          *ID      `json:"post_id"`
	UserID          ID       `json:"user_id"`
	TotalPrice      *float64 `json:"total_price"`
	People          int      `json:"people"`
	PayState        string   `json:"pay_state"`
	CreatedAt       string   `json:"created_at"`
	PaymentIntentID string   `json:"payment_intent_id,omitempty"`
	Users           *User    `json:"users,omitempty"`
	Posts           *Post    `json:"posts,omitempty"`
}

// Total returns TotalPrice or zero.
func (p *Payment) Total() float64 {
	if p == nil || p.TotalPrice == nil {
		return 0
	}
	return *p.TotalPrice
}
