package notifier

import (
	"strings"

	"github.com/lab007/webalert/internal/common"
)

// carrierGateway holds the email-to-SMS gateway domains of one US carrier.
// MMS gateways tend to have better deliverability, so they are preferred
// when available.
type carrierGateway struct {
	SMS string
	MMS string
}

// carrierGateways maps normalized carrier names to their gateway domains.
// MVNOs are mapped to the host network they ride on.
var carrierGateways = map[string]carrierGateway{
	// AT&T and FirstNet (FirstNet rides on AT&T)
	"att":      {SMS: "txt.att.net", MMS: "mms.att.net"},
	"at&t":     {SMS: "txt.att.net", MMS: "mms.att.net"},
	"firstnet": {SMS: "txt.att.net", MMS: "mms.att.net"},
	"att-alt":  {SMS: "mobile.att.net", MMS: "mms.att.net"},

	// Verizon and Xfinity Mobile (Xfinity uses the Verizon network)
	"verizon":        {SMS: "vtext.com", MMS: "vzwpix.com"},
	"xfinity":        {SMS: "vtext.com", MMS: "vzwpix.com"},
	"xfinity mobile": {SMS: "vtext.com", MMS: "vzwpix.com"},
	"comcast":        {SMS: "vtext.com", MMS: "vzwpix.com"},
	"visible":        {SMS: "vtext.com", MMS: "vzwpix.com"},

	// T-Mobile and MVNOs that route via tmomail
	"tmobile":     {SMS: "tmomail.net", MMS: "tmomail.net"},
	"t-mobile":    {SMS: "tmomail.net", MMS: "tmomail.net"},
	"mint":        {SMS: "tmomail.net", MMS: "tmomail.net"},
	"mint mobile": {SMS: "tmomail.net", MMS: "tmomail.net"},

	"google fi": {SMS: "msg.fi.google.com", MMS: "msg.fi.google.com"},

	"cricket": {SMS: "sms.cricketwireless.net", MMS: "mms.cricketwireless.net"},

	"us cellular": {SMS: "email.uscc.net", MMS: "mms.uscc.net"},
	"uscellular":  {SMS: "email.uscc.net", MMS: "mms.uscc.net"},

	"metro":             {SMS: "metropcs.sms.us", MMS: "mymetropcs.com"},
	"metropcs":          {SMS: "metropcs.sms.us", MMS: "mymetropcs.com"},
	"metro by t-mobile": {SMS: "metropcs.sms.us", MMS: "mymetropcs.com"},

	"boost":        {SMS: "sms.myboostmobile.com", MMS: "myboostmobile.com"},
	"boost mobile": {SMS: "sms.myboostmobile.com", MMS: "myboostmobile.com"},

	"ting": {SMS: "message.ting.com", MMS: "message.ting.com"},

	"consumer cellular": {SMS: "mailmymobile.net", MMS: "mailmymobile.net"},

	"straight talk": {SMS: "vtext.com", MMS: "mypixmessages.com"},

	"tracfone": {SMS: "mmst5.tracfone.com", MMS: "mmst5.tracfone.com"},
}

func normalizeCarrierName(carrier string) string {
	return strings.ToLower(strings.TrimSpace(carrier))
}

// stripNonDigits keeps only the digits of a phone number.
func stripNonDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveGatewayAddress converts a phone number and carrier name into an
// email-to-SMS gateway address (the last ten digits at the carrier's gateway
// domain). An unknown carrier or malformed number is a configuration problem
// and fails synchronously.
func ResolveGatewayAddress(phone, carrier string, preferMMS bool) (string, error) {
	digits := stripNonDigits(phone)
	if len(digits) < 10 {
		return "", common.NewValidationError("phone_number", phone, "phone number has fewer than 10 digits")
	}
	last10 := digits[len(digits)-10:]

	key := normalizeCarrierName(carrier)
	gateway, ok := carrierGateways[key]
	if !ok {
		return "", common.NewConfigurationError("notification", "carrier", "unsupported or unknown carrier: "+carrier)
	}

	domain := gateway.SMS
	if preferMMS && gateway.MMS != "" {
		domain = gateway.MMS
	}
	if domain == "" {
		return "", common.NewConfigurationError("notification", "carrier", "no gateway domain available for carrier: "+carrier)
	}
	return last10 + "@" + domain, nil
}

// SupportedCarriers returns the normalized carrier names with a known
// gateway, for diagnostics.
func SupportedCarriers() []string {
	names := make([]string, 0, len(carrierGateways))
	for name := range carrierGateways {
		names = append(names, name)
	}
	return names
}
