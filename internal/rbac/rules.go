package rbac

const (
	RoleLearner = "learner"
	RoleAuthor  = "author"
)

const (
	PermTestsView   = "tests:view"
	PermSessionUse  = "session:use"
	PermResultsOwn  = "results:view-own"
	PermResultsAll  = "results:view-all"
	PermFeedWrite   = "feed:write"
	PermUploadWrite = "upload:write"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleLearner: {
		PermTestsView,
		PermSessionUse,
		PermUploadWrite,
		PermResultsOwn,
	},
	RoleAuthor: {
		"tests:*",
		"results:*",
		PermFeedWrite,
	},
}
