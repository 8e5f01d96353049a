package adlib

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL for the LinkedIn Ad Library
	BaseURL = "https://www.linkedin.com"

	// SearchEndpoint is the full-page search listing for one advertiser
	SearchEndpoint = "/ad-library/search"

	// FragmentEndpoint returns the next listing fragment for a continuation token
	FragmentEndpoint = "/ad-library/searchPaginationFragment"

	// DetailEndpoint is the per-ad detail page
	DetailEndpoint = "/ad-library/detail"
)

// GetFragmentURL constructs the token-based listing URL. An empty token
// requests the first page.
func GetFragmentURL(advertiser, token string) string {
	params := url.Values{}
	params.Set("accountOwner", advertiser)
	if token != "" {
		params.Set("paginationToken", token)
	}
	return fmt.Sprintf("%s%s?%s", BaseURL, FragmentEndpoint, params.Encode())
}

// GetSearchURL constructs the offset-based listing URL
func GetSearchURL(advertiser string, offset int) string {
	params := url.Values{}
	params.Set("accountOwner", advertiser)
	params.Set("countries", "ALL")
	params.Set("start", strconv.Itoa(offset))
	return fmt.Sprintf("%s%s?%s", BaseURL, SearchEndpoint, params.Encode())
}

// GetDetailURL constructs the detail page URL for an ad ID
func GetDetailURL(adID string) string {
	return fmt.Sprintf("%s%s/%s", BaseURL, DetailEndpoint, adID)
}

// SanitizeAdvertiser trims decoration from a user-supplied advertiser name
func SanitizeAdvertiser(advertiser string) string {
	advertiser = strings.TrimSpace(advertiser)
	advertiser = strings.TrimPrefix(advertiser, "@")
	return strings.TrimRight(advertiser, "/ ")
}
