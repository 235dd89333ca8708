package model

// Artifact names used by audits to declare their inputs.
const (
	// ArtifactCSSUsage is the collection of stylesheets used by the page.
	ArtifactCSSUsage = "CSSUsage"

	// ArtifactMainDocumentContent is the raw text of the main HTML document.
	ArtifactMainDocumentContent = "MainDocumentContent"

	// ArtifactURL holds the requested and final URLs of the page.
	ArtifactURL = "URL"

	// ArtifactDevtoolsLogs is the network activity recorded while loading the page.
	ArtifactDevtoolsLogs = "devtoolsLogs"
)

// Resource types recorded on network records.
const (
	ResourceTypeDocument   = "Document"
	ResourceTypeStylesheet = "Stylesheet"
	ResourceTypeScript     = "Script"
	ResourceTypeMedia      = "Media"
	ResourceTypeOther      = "Other"
)

// Artifacts contains all page data available to audits.
// A nil slice or empty string means the artifact was not gathered.
type Artifacts struct {
	// URL holds the requested, main document and final displayed URLs.
	URL URLArtifact `json:"url"`

	// Stylesheets contains every stylesheet the page uses, linked or inline.
	// A non-nil empty slice means the page has no stylesheets.
	Stylesheets []Stylesheet `json:"stylesheets"`

	// MainDocumentContent is the decoded text of the main HTML document.
	MainDocumentContent string `json:"-"`

	// NetworkRecords contains one record per fetched resource.
	NetworkRecords []NetworkRecord `json:"network_records,omitempty"`
}

// URLArtifact contains the URLs involved in loading the page.
type URLArtifact struct {
	// RequestedURL is the URL the user asked to audit.
	RequestedURL string `json:"requested_url"`

	// MainDocumentURL is the URL the main document was served from after redirects.
	MainDocumentURL string `json:"main_document_url"`

	// FinalDisplayedURL is the URL shown to the user. Relative references in
	// the document are resolved against it.
	FinalDisplayedURL string `json:"final_displayed_url"`
}

// Stylesheet is a single CSS source. Content is opaque text.
type Stylesheet struct {
	// URL is where the stylesheet was loaded from. Empty for inline <style>.
	URL string `json:"url,omitempty"`

	// Content is the CSS source text.
	Content string `json:"-"`
}

// NetworkRecord describes one resource fetched while loading the page.
type NetworkRecord struct {
	URL string `json:"url"`

	// ResourceType is one of the ResourceType constants.
	ResourceType string `json:"resource_type"`

	StatusCode int `json:"status_code"`

	// TransferSize is the number of bytes received on the wire (encoded body).
	TransferSize int64 `json:"transfer_size"`

	// ResourceSize is the decoded body size.
	ResourceSize int64 `json:"resource_size"`

	// ContentEncoding is the Content-Encoding of the response, if any.
	ContentEncoding string `json:"content_encoding,omitempty"`
}

// Has reports whether the named artifact was gathered.
func (a *Artifacts) Has(name string) bool {
	if a == nil {
		return false
	}
	switch name {
	case ArtifactCSSUsage:
		return a.Stylesheets != nil
	case ArtifactMainDocumentContent:
		return a.MainDocumentContent != ""
	case ArtifactURL:
		return a.URL.FinalDisplayedURL != ""
	case ArtifactDevtoolsLogs:
		return a.NetworkRecords != nil
	default:
		return false
	}
}

// MainDocumentRecord returns the network record of the main document, or nil
// if none was recorded.
func (a *Artifacts) MainDocumentRecord() *NetworkRecord {
	if a == nil {
		return nil
	}
	for i := range a.NetworkRecords {
		r := &a.NetworkRecords[i]
		if r.ResourceType != ResourceTypeDocument {
			continue
		}
		if a.URL.MainDocumentURL == "" || r.URL == a.URL.MainDocumentURL {
			return r
		}
	}
	return nil
}
