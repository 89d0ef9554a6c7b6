package paginator

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidInteger = "Enter a whole number."
	msgMinValue       = "Ensure this value is greater than or equal to %d."
)

var validate = validator.New()

// Form holds the cleaned offset/limit query parameters. Nil means the
// parameter was absent, empty or invalid.
type Form struct {
	Offset *int
	Limit  *int
}

// ParseForm validates the offset and limit parameters of query. Errors are
// keyed by parameter name and never abort parsing of the other field.
func ParseForm(query url.Values) (Form, map[string]string) {
	var form Form
	errs := make(map[string]string)

	form.Offset = parseField(query, "offset", 0, errs)
	form.Limit = parseField(query, "limit", 1, errs)

	return form, errs
}

func parseField(query url.Values, name string, min int, errs map[string]string) *int {
	raw := lastValue(query, name)
	if raw == "" {
		return nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		errs[name] = msgInvalidInteger
		return nil
	}

	if err := validate.Var(n, "gte="+strconv.Itoa(min)); err != nil {
		errs[name] = fmt.Sprintf(msgMinValue, min)
		return nil
	}

	return &n
}

// lastValue mirrors form handling where a repeated parameter resolves to
// its last occurrence.
func lastValue(query url.Values, name string) string {
	vals := query[name]
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[len(vals)-1])
}
