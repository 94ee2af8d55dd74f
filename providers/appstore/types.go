package appstore

const (
	resourceApps                 = "apps"
	resourceVersions             = "appStoreVersions"
	resourceVersionLocalizations = "appStoreVersionLocalizations"
)

// Version is an App Store version resource.
type Version struct {
	ID            string
	VersionString string
	Platform      string
	State         string
}

// Localization is the per-locale text attached to a version.
type Localization struct {
	ID       string
	Locale   string
	WhatsNew string
}

type resourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type versionAttributes struct {
	VersionString string `json:"versionString"`
	Platform      string `json:"platform,omitempty"`
	AppStoreState string `json:"appStoreState,omitempty"`
}

type versionResource struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Attributes versionAttributes `json:"attributes"`
}

type versionListResponse struct {
	Data []versionResource `json:"data"`
}

type versionSingleResponse struct {
	Data versionResource `json:"data"`
}

type localizationAttributes struct {
	Locale   string  `json:"locale"`
	WhatsNew *string `json:"whatsNew"`
}

type localizationResource struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes localizationAttributes `json:"attributes"`
}

type localizationListResponse struct {
	Data []localizationResource `json:"data"`
}

type whatsNewAttributes struct {
	WhatsNew string `json:"whatsNew"`
}

type localizationPatchData struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Attributes whatsNewAttributes `json:"attributes"`
}

type localizationPatchRequest struct {
	Data localizationPatchData `json:"data"`
}

type appRelationship struct {
	Data resourceRef `json:"data"`
}

type versionRelationships struct {
	App appRelationship `json:"app"`
}

type versionCreateData struct {
	Type          string               `json:"type"`
	Attributes    versionAttributes    `json:"attributes"`
	Relationships versionRelationships `json:"relationships"`
}

type versionCreateRequest struct {
	Data versionCreateData `json:"data"`
}

func (r versionResource) toVersion() Version {
	return Version{
		ID:            r.ID,
		VersionString: r.Attributes.VersionString,
		Platform:      r.Attributes.Platform,
		State:         r.Attributes.AppStoreState,
	}
}

func (r localizationResource) toLocalization() Localization {
	out := Localization{ID: r.ID, Locale: r.Attributes.Locale}
	if r.Attributes.WhatsNew != nil {
		out.WhatsNew = *r.Attributes.WhatsNew
	}
	return out
}
