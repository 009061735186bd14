package service

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

// NewValidator returns a validator with the domain specific tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("schoolyear", validateSchoolYear)
	return v
}

// jsonFieldName reports fields by their JSON name so error details match the payload.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// validateTrimmed trims every string reachable from req, a pointer to a request
// struct, and validates the result. Slices and string pointers are replaced
// rather than edited so the caller's payload is left as it was.
func validateTrimmed(v *validator.Validate, req interface{}) error {
	trimStrings(reflect.ValueOf(req).Elem())
	return v.Struct(req)
}

func trimStrings(v reflect.Value) {
	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			v.SetString(strings.TrimSpace(v.String()))
		}
	case reflect.Pointer:
		if v.IsNil() || !v.CanSet() {
			return
		}
		elem := v.Elem()
		if elem.Kind() != reflect.String && elem.Kind() != reflect.Struct {
			return
		}
		fresh := reflect.New(elem.Type())
		fresh.Elem().Set(elem)
		trimStrings(fresh.Elem())
		v.Set(fresh)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			trimStrings(v.Field(i))
		}
	case reflect.Slice:
		if v.IsNil() || !v.CanSet() {
			return
		}
		fresh := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(fresh, v)
		for i := 0; i < fresh.Len(); i++ {
			trimStrings(fresh.Index(i))
		}
		v.Set(fresh)
	}
}

func validateSchoolYear(fl validator.FieldLevel) bool {
	return IsSchoolYear(fl.Field().String())
}

// IsSchoolYear reports whether period is "YYYY-YYYY" with consecutive years.
func IsSchoolYear(period string) bool {
	start, end, ok := strings.Cut(period, "-")
	if !ok || len(start) != 4 || len(end) != 4 {
		return false
	}
	from, err := strconv.Atoi(start)
	if err != nil {
		return false
	}
	to, err := strconv.Atoi(end)
	if err != nil {
		return false
	}
	return from >= 1900 && to == from+1
}

// ratingError maps calculation errors onto API errors.
func ratingError(err error) error {
	var (
		invalidRating  *rating.InvalidRatingError
		invalidWeight  *rating.InvalidWeightError
		empty          *rating.EmptyInputError
		outOfRange     *rating.OutOfRangeRatingError
		transitionFail *rating.InvalidTransitionError
	)
	switch {
	case errors.As(err, &invalidRating):
		return appErrors.Wrap(err, appErrors.ErrInvalidRating.Code, appErrors.ErrInvalidRating.Status, invalidRating.Error())
	case errors.As(err, &invalidWeight):
		return appErrors.Wrap(err, appErrors.ErrInvalidWeights.Code, appErrors.ErrInvalidWeights.Status, invalidWeight.Error())
	case errors.As(err, &empty):
		return appErrors.Wrap(err, appErrors.ErrEmptyRatings.Code, appErrors.ErrEmptyRatings.Status, "at least one objective must be rated")
	case errors.As(err, &outOfRange):
		return appErrors.Invalid(err, outOfRange.Error())
	case errors.As(err, &transitionFail):
		return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, transitionFail.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute rating")
	}
}
