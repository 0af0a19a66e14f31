package rest

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"liquidation-export/internal/domain"
	"liquidation-export/internal/report"
	"liquidation-export/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

type ValidationError struct {
	Field   string
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("campaign", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseCampaign(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("ruc", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseIdentifier(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("ddmmyyyy", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(report.DateLayout, fl.Field().String())
		return err == nil
	})

	return v
}

// LiquidationRequest is shared by the download query string and the async
// export body.
type LiquidationRequest struct {
	Identifier  string `json:"identifier" validate:"required,ruc"`
	Campaign    string `json:"campaign" validate:"required,campaign"`
	Address     string `json:"address" validate:"max=300"`
	PaymentDate string `json:"payment_date" validate:"omitempty,ddmmyyyy"`
	UserID      int64  `json:"user_id" validate:"gte=0"`
}

func (r *LiquidationRequest) normalize() {
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.Campaign = strings.TrimSpace(r.Campaign)
	r.Address = strings.TrimSpace(r.Address)
	r.PaymentDate = strings.TrimSpace(r.PaymentDate)
}

func (r *LiquidationRequest) Validate() error {
	r.normalize()

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &ValidationError{Message: err.Error()}
	}

	details := make(map[string]string, len(ve))
	for _, fe := range ve {
		details[fe.Field()] = fe.Tag()
	}
	first := ve[0]
	return &ValidationError{
		Field:   first.Field(),
		Message: first.Field() + " is invalid (" + first.Tag() + ")",
		Details: details,
	}
}

func (r LiquidationRequest) ToServiceRequest() service.Request {
	return service.Request{
		Identifier:  domain.MustIdentifier(r.Identifier),
		Campaign:    domain.NormalizeCampaign(r.Campaign),
		Address:     r.Address,
		PaymentDate: r.PaymentDate,
	}
}

// DecodeLiquidationRequest reads and validates a JSON body. user_id may be
// sent as a number or a numeric string.
func DecodeLiquidationRequest(r *http.Request) (*LiquidationRequest, error) {
	var raw struct {
		Identifier  any    `json:"identifier"`
		Campaign    string `json:"campaign"`
		Address     string `json:"address"`
		PaymentDate string `json:"payment_date"`
		UserID      any    `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, &ValidationError{Message: "invalid JSON"}
	}

	identifier, err := toIdentifierString(raw.Identifier)
	if err != nil {
		return nil, &ValidationError{Field: "identifier", Message: "identifier must be a number or numeric string"}
	}

	userID, err := toInt64(raw.UserID)
	if err != nil {
		return nil, &ValidationError{Field: "user_id", Message: "user_id must be integer or empty"}
	}

	req := &LiquidationRequest{
		Identifier:  identifier,
		Campaign:    raw.Campaign,
		Address:     raw.Address,
		PaymentDate: raw.PaymentDate,
		UserID:      userID,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// pathLiquidationRequest builds a request from the {identifier}/{campaign}
// path and the address/payment_date query parameters.
func pathLiquidationRequest(r *http.Request, identifier, campaign string) (*LiquidationRequest, error) {
	q := r.URL.Query()
	req := &LiquidationRequest{
		Identifier:  identifier,
		Campaign:    campaign,
		Address:     q.Get("address"),
		PaymentDate: q.Get("payment_date"),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func toIdentifierString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		id, err := domain.ParseIdentifier(t)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	default:
		return "", &ValidationError{Message: "invalid type for identifier"}
	}
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(t), nil
	case string:
		if t == "" {
			return 0, nil
		}
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, &ValidationError{Message: "invalid type for int field"}
	}
}

// queryUserID reads ?user_id=, defaulting to 0.
func queryUserID(r *http.Request) (int64, error) {
	v := r.URL.Query().Get("user_id")
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0, &ValidationError{Field: "user_id", Message: "user_id must be a non-negative integer"}
	}
	return id, nil
}

func queryLimit(r *http.Request, def, max int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, &ValidationError{Field: "limit", Message: "limit must be a positive integer"}
	}
	return min(n, max), nil
}
