package anydo

// DefaultBaseURL is the production Any.do API host.
const DefaultBaseURL = "https://sm-prod2.any.do"

// API endpoints, relative to the base URL.
const (
	loginEndpoint      = "/j_spring_security_check"
	meEndpoint         = "/me"
	userEndpoint       = "/user"
	tasksEndpoint      = "/me/tasks"
	categoriesEndpoint = "/me/categories"
	syncEndpoint       = "/api/v2/me/sync"
	pendingEndpoint    = meEndpoint + "/pending"
)
