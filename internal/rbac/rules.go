package rbac

const (
	PermDiagnosticView   = "diagnostic:view"
	PermResultSubmit     = "result:submit"
	PermResultViewOwn    = "result:view-own"
	PermResultViewAll    = "result:view-all"
	PermResultGrade      = "result:grade"
	PermAnalysisViewAll  = "analysis:view-all"
	PermAssistantAsk     = "assistant:ask"
	PermChangePassword   = "user:change_password"
	PermTestEdit         = "test:edit"
	PermUsersManage      = "users:manage"
	PermKnowledgeManage  = "knowledge:manage"
	PermResultsDeleteAll = "results:delete-all"
)

// Role grants permissions directly and through the roles it inherits.
type Role struct {
	Inherits []string
	Grants   []string
}

// DefaultRoles is the built-in policy.
var DefaultRoles = map[string]Role{
	"student": {
		Grants: []string{
			PermDiagnosticView,
			PermResultSubmit,
			PermResultViewOwn,
			PermAssistantAsk,
			PermChangePassword,
		},
	},
	"teacher": {
		Inherits: []string{"student"},
		Grants: []string{
			PermResultViewAll,
			PermResultGrade,
			PermAnalysisViewAll,
			PermTestEdit,
		},
	},
	"admin": {Grants: []string{"*"}},
}
