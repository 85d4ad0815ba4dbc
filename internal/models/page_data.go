package models

// SignInPage is the data the sign-in templates execute against.
// It is assembled from constants only, so every render sees the same value.
type SignInPage struct {
	// Title is shown in the browser tab and as the page heading
	Title string

	// Providers are the federated identity entry points, in display order
	Providers []ProviderLink

	// SignUpPath is where the "Sign up" link points
	SignUpPath string

	// Stylesheet is the path of the externally owned stylesheet
	Stylesheet string
}
