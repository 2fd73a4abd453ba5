package utils

import (
	"errors"
	"regexp"
	"strings"
)

// Compiled regular expressions for validation
var (
	// Allow alphanumeric, underscore, hyphen, dot - common in transit IDs
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	// Detect potentially dangerous characters - more focused on injection patterns
	dangerousPattern = regexp.MustCompile(`[<>]|--|\/\*|\*\/|;.*--`)

	// Detect HTML/script tags
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// MaxStopsPerQuery caps closest-stop queries.
const MaxStopsPerQuery = 100

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateQuery validates search query strings
func ValidateQuery(query string) error {
	if query == "" {
		return nil
	}

	if len(query) > 200 {
		return errors.New("query too long (max 200 characters)")
	}

	if dangerousPattern.MatchString(query) {
		return errors.New("query contains invalid characters")
	}

	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateRadius validates radius values for location searches
func ValidateRadius(radius float64) error {
	if radius < 0 {
		return errors.New("radius must be non-negative")
	}

	// The Marguerite network fits in roughly 20km
	if radius > 20000 {
		return errors.New("radius too large (max 20000 meters)")
	}

	return nil
}

// ValidateMaxCount validates the number of results requested
func ValidateMaxCount(n int) error {
	if n < 1 {
		return errors.New("maxCount must be at least 1")
	}
	if n > MaxStopsPerQuery {
		return errors.New("maxCount too large (max 100)")
	}
	return nil
}

// SanitizeInput removes HTML tags and other potentially dangerous content
func SanitizeInput(input string) string {
	sanitized := htmlTagPattern.ReplaceAllString(input, "")
	return strings.TrimSpace(sanitized)
}

// ValidateLocationParams validates a complete set of location parameters
func ValidateLocationParams(lat, lon, radius float64, maxCount int) map[string][]string {
	fieldErrors := make(map[string][]string)

	if err := ValidateLatitude(lat); err != nil {
		fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
	}

	if err := ValidateLongitude(lon); err != nil {
		fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
	}

	if radius != 0 {
		if err := ValidateRadius(radius); err != nil {
			fieldErrors["radius"] = append(fieldErrors["radius"], err.Error())
		}
	}

	if err := ValidateMaxCount(maxCount); err != nil {
		fieldErrors["maxCount"] = append(fieldErrors["maxCount"], err.Error())
	}

	return fieldErrors
}

// ValidateAndSanitizeQuery validates and sanitizes a search query
func ValidateAndSanitizeQuery(query string) (string, error) {
	if err := ValidateQuery(query); err != nil {
		return "", err
	}

	return SanitizeInput(query), nil
}
