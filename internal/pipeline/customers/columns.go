package customers

import "github.com/andresuchdata/platform-analytics/internal/normalize"

const (
	FieldID        normalize.Field = "customer_id"
	FieldFirstName normalize.Field = "first_name"
	FieldLastName  normalize.Field = "last_name"
	FieldPhone     normalize.Field = "phone"
	FieldEmail     normalize.Field = "email"
	FieldSince     normalize.Field = "customer_since"
	FieldMarketing normalize.Field = "marketing_opt_in"
)

// contactDecoys mark preference columns that mention a contact channel,
// such as "Email Subscription Status".
var contactDecoys = []string{"subscription", "subscribed", "status", "marketing", "consent", "opt"}

// Rules maps customer export headers onto canonical fields. Identity is
// matched by equality only so "Customer Since" never claims it. Contact
// fields try exact labels before substrings.
var Rules = []normalize.Rule{
	{Field: FieldID, Match: normalize.Equals("customer id", "customerid", "customer_id", "id")},
	{Field: FieldFirstName, Match: normalize.Any(
		normalize.Contains("first name"),
		normalize.Equals("firstname", "first_name"),
	)},
	{Field: FieldLastName, Match: normalize.Any(
		normalize.Contains("last name"),
		normalize.Equals("lastname", "last_name"),
	)},
	{Field: FieldPhone, Match: normalize.Equals("phone", "phone number", "mobile", "mobile phone", "mobile number")},
	{Field: FieldPhone, Match: normalize.Except(normalize.Contains("phone", "mobile"), contactDecoys...)},
	{Field: FieldEmail, Match: normalize.Equals("email", "email address", "e-mail", "e-mail address")},
	{Field: FieldEmail, Match: normalize.Except(normalize.Contains("email", "e-mail"), contactDecoys...)},
	{Field: FieldSince, Match: normalize.Contains("customer since", "created", "signup", "sign up", "registration")},
	{Field: FieldMarketing, Match: normalize.Contains("marketing", "opt in", "opt-in")},
}
