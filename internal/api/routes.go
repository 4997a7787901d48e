package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/about"
	MetricsRoute     = "/metrics"

	ListActionsRoute  = "/v1/actions"
	TriggerEventRoute = "/v1/events/{event}"

	AdminParent     = "/v1/admin/"
	ListTokensRoute = AdminParent + "tokens"
	GetTokenRoute   = AdminParent + "tokens/{serial}"
	ListRealmsRoute = AdminParent + "realms"
	AddRealmRoute   = AdminParent + "realms/{realm}"
	ListAuditsRoute = AdminParent + "audit"

	ListTasksRoute   = AdminParent + "tasks"
	TriggerTaskRoute = AdminParent + "tasks/{name}/trigger"
	LogsForTaskRoute = AdminParent + "tasks/{name}/logs"
)
