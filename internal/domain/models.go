package domain

import "time"

// Difficulty is the three-step scale used across topics, resources and careers.
type Difficulty string

const (
	DifficultyLow    Difficulty = "Low"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHigh   Difficulty = "High"
)

// Rank orders difficulties Low < Medium < High; unknown values sort last.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyLow:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHigh:
		return 2
	default:
		return 3
	}
}

type AvailabilityStatus string

const (
	Available   AvailabilityStatus = "Available"
	Limited     AvailabilityStatus = "Limited"
	Unavailable AvailabilityStatus = "Unavailable"
)

// Rank orders statuses from most to least available.
func (a AvailabilityStatus) Rank() int {
	switch a {
	case Available:
		return 0
	case Limited:
		return 1
	case Unavailable:
		return 2
	default:
		return 3
	}
}

type ResourceType string

const (
	ResourceAcademic      ResourceType = "Academic"
	ResourceTutorial      ResourceType = "Tutorial"
	ResourceDocumentation ResourceType = "Documentation"
	ResourceCommunity     ResourceType = "Community"
	ResourceTool          ResourceType = "Tool"
)

type SkillType string

const (
	SkillTechnical SkillType = "Technical"
	SkillSoft      SkillType = "Soft"
)

// Topic is a project subject students can be matched to.
type Topic struct {
	ID                  string     `json:"id" yaml:"id"`
	Name                string     `json:"name" yaml:"name"`
	Description         string     `json:"description" yaml:"description"`
	Categories          []string   `json:"categories" yaml:"categories"`
	TechnicalDifficulty Difficulty `json:"technicalDifficulty" yaml:"technicalDifficulty"`
	ProgrammingRequired Difficulty `json:"programmingRequired" yaml:"programmingRequired"`
	FieldWork           Difficulty `json:"fieldWork" yaml:"fieldWork"`
	DataAvailability    Difficulty `json:"dataAvailability" yaml:"dataAvailability"`
	EquipmentNeeds      Difficulty `json:"equipmentNeeds" yaml:"equipmentNeeds"`
	CareerRelevance     Difficulty `json:"careerRelevance" yaml:"careerRelevance"`
	TimeInvestment      Difficulty `json:"timeInvestment" yaml:"timeInvestment"`
	Prerequisites       []string   `json:"prerequisites" yaml:"prerequisites"`
	RelatedResources    []string   `json:"relatedResources" yaml:"relatedResources"`
	RelatedDatasets     []string   `json:"relatedDatasets" yaml:"relatedDatasets"`
}

type Resource struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Type        ResourceType `json:"type" yaml:"type"`
	URL         string       `json:"url" yaml:"url"`
	Categories  []string     `json:"categories" yaml:"categories"`
	Language    string       `json:"language" yaml:"language"`
	Difficulty  Difficulty   `json:"difficulty" yaml:"difficulty"`
	Tags        []string     `json:"tags" yaml:"tags"`
}

type Dataset struct {
	ID                     string   `json:"id" yaml:"id"`
	Name                   string   `json:"name" yaml:"name"`
	Description            string   `json:"description" yaml:"description"`
	Source                 string   `json:"source" yaml:"source"`
	Format                 string   `json:"format" yaml:"format"`
	Size                   string   `json:"size" yaml:"size"`
	Categories             []string `json:"categories" yaml:"categories"`
	URL                    string   `json:"url" yaml:"url"`
	LastUpdated            string   `json:"lastUpdated" yaml:"lastUpdated"`
	RequiresAuthentication bool     `json:"requiresAuthentication" yaml:"requiresAuthentication"`
}

type Equipment struct {
	ID                string             `json:"id" yaml:"id"`
	Name              string             `json:"name" yaml:"name"`
	Type              string             `json:"type" yaml:"type"`
	Description       string             `json:"description" yaml:"description"`
	Availability      AvailabilityStatus `json:"availability" yaml:"availability"`
	Location          string             `json:"location" yaml:"location"`
	CheckoutProcedure string             `json:"checkoutProcedure" yaml:"checkoutProcedure"`
	Restrictions      string             `json:"restrictions" yaml:"restrictions"`
	RelatedTopics     []string           `json:"relatedTopics" yaml:"relatedTopics"`
}

type Skill struct {
	Name  string     `json:"name" yaml:"name"`
	Level Difficulty `json:"level" yaml:"level"`
	Type  SkillType  `json:"type" yaml:"type"`
}

type CareerPathway struct {
	ID             string     `json:"id" yaml:"id"`
	Sector         string     `json:"sector" yaml:"sector"`
	Role           string     `json:"role" yaml:"role"`
	Description    string     `json:"description" yaml:"description"`
	RequiredSkills []Skill    `json:"requiredSkills" yaml:"requiredSkills"`
	SalaryRange    string     `json:"salaryRange" yaml:"salaryRange"`
	DemandLevel    Difficulty `json:"demandLevel" yaml:"demandLevel"`
	RelatedTopics  []string   `json:"relatedTopics" yaml:"relatedTopics"`
}

// Option is one selectable answer; TopicMatches maps topic ID to a weight in [0,100].
type Option struct {
	ID           string         `json:"id" yaml:"id"`
	Text         string         `json:"text" yaml:"text"`
	TopicMatches map[string]int `json:"topicMatches" yaml:"topicMatches"`
}

type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Options []Option `json:"options" yaml:"options"`
}

// Questionnaire is the static question set together with the ordered topic IDs it scores.
// Topic order is significant: it breaks ties between equal match percentages.
type Questionnaire struct {
	Topics    []string   `json:"topics" yaml:"topics"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Catalog bundles every static collection served by the portal.
type Catalog struct {
	Topics        []Topic         `json:"topics" yaml:"topics"`
	Resources     []Resource      `json:"resources" yaml:"resources"`
	Datasets      []Dataset       `json:"datasets" yaml:"datasets"`
	Equipment     []Equipment     `json:"equipment" yaml:"equipment"`
	Careers       []CareerPathway `json:"careers" yaml:"careers"`
	Questionnaire Questionnaire   `json:"questionnaire" yaml:"questionnaire"`
}

// UserAnswer is a single selection; at most one per question survives deduplication.
type UserAnswer struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
}

type AnomalyKind string

const (
	AnomalyUnknownQuestion AnomalyKind = "unknown_question"
	AnomalyUnknownOption   AnomalyKind = "unknown_option"
	AnomalyUnknownTopic    AnomalyKind = "unknown_topic"
)

// Anomaly records an answer or weight that was skipped during scoring.
type Anomaly struct {
	Kind       AnomalyKind `json:"kind"`
	QuestionID string      `json:"questionId,omitempty"`
	OptionID   string      `json:"optionId,omitempty"`
	TopicID    string      `json:"topicId,omitempty"`
}

type TopicMatch struct {
	TopicID    string `json:"topicId"`
	Percentage int    `json:"percentage"`
	Level      string `json:"level"`
}

// QuestionnaireResult is derived from an answer set and never persisted.
// Matches lists every catalog topic in catalog order.
type QuestionnaireResult struct {
	TopicMatches         map[string]int `json:"topicMatches"`
	Matches              []TopicMatch   `json:"matches"`
	RecommendedTopics    []string       `json:"recommendedTopics"`
	RecommendedResources []string       `json:"recommendedResources"`
	Answered             int            `json:"answered"`
	Anomalies            []Anomaly      `json:"anomalies,omitempty"`
}

// SessionSnapshot is the client-facing view of a questionnaire session.
type SessionSnapshot struct {
	SessionID       string              `json:"sessionId"`
	Answers         []UserAnswer        `json:"answers"`
	CurrentQuestion int                 `json:"currentQuestion"`
	TotalQuestions  int                 `json:"totalQuestions"`
	Complete        bool                `json:"complete"`
	Result          QuestionnaireResult `json:"result"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationRejected  ReservationStatus = "rejected"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Active reports whether the reservation still blocks its date range.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationApproved
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationApproved, ReservationRejected, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

// ReservationRequest is the client's reserve payload; dates are YYYY-MM-DD.
type ReservationRequest struct {
	EquipmentID string `json:"equipmentId"`
	UserID      string `json:"userId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Purpose     string `json:"purpose"`
}

type Reservation struct {
	ID          string            `json:"id"`
	EquipmentID string            `json:"equipmentId"`
	UserID      string            `json:"userId"`
	StartDate   time.Time         `json:"startDate"`
	EndDate     time.Time         `json:"endDate"`
	Purpose     string            `json:"purpose"`
	Status      ReservationStatus `json:"status"`
	RequestedAt time.Time         `json:"requestedAt"`
}

// Overlaps reports whether the inclusive date ranges of r and other intersect.
func (r Reservation) Overlaps(other Reservation) bool {
	return !r.StartDate.After(other.EndDate) && !other.StartDate.After(r.EndDate)
}

// ReservationResult mirrors the client's {success, message} mutation response.
type ReservationResult struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Reservation *Reservation `json:"reservation,omitempty"`
}
