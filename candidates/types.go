package candidates

// Candidate is one person standing for election.
type Candidate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameAr      string `json:"name_ar,omitempty"`
	NameKu      string `json:"name_ku,omitempty"`
	Photo       string `json:"photo,omitempty"`
	Bio         string `json:"bio,omitempty"`
	BioAr       string `json:"bio_ar,omitempty"`
	BioKu       string `json:"bio_ku,omitempty"`
	Party       string `json:"party"`
	Governorate string `json:"governorate"`
	Age         int    `json:"age,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Education   string `json:"education,omitempty"`
	Experience  string `json:"experience,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Page is one page of a candidate listing.
type Page struct {
	Data  []Candidate `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// TotalPages returns the number of pages for the page's total and limit.
func (p *Page) TotalPages() int {
	return TotalPages(p.Total, p.Limit)
}

// Filters narrows a candidate listing. Zero values are omitted from the query.
type Filters struct {
	Query        string
	Search       string
	Governorate  string
	Province     string
	Party        string
	Constituency string
	Gender       string
	Page         int
	Limit        int
}

type Governorate struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NameAr     string `json:"name_ar"`
	NameKu     string `json:"name_ku"`
	Population int    `json:"population,omitempty"`
	Region     string `json:"region"`
}

type Party struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	NameAr   string `json:"name_ar"`
	NameKu   string `json:"name_ku"`
	Logo     string `json:"logo,omitempty"`
	Ideology string `json:"ideology,omitempty"`
	Founded  int    `json:"founded,omitempty"`
}

// Stats summarises the candidate registry.
type Stats struct {
	TotalCandidates          int                `json:"total_candidates"`
	TotalParties             int                `json:"total_parties"`
	TotalGovernorates        int                `json:"total_governorates"`
	LastUpdated              string             `json:"last_updated"`
	GenderDistribution       GenderDistribution `json:"gender_distribution"`
	CandidatesPerGovernorate []GovernorateCount `json:"candidates_per_governorate"`
}

type GenderDistribution struct {
	Male   int `json:"Male"`
	Female int `json:"Female"`
}

type GovernorateCount struct {
	GovernorateName string `json:"governorate_name"`
	CandidateCount  int    `json:"candidate_count"`
}
