package rbac

// Default policy. Students sit quizzes and manage their own attempts;
// teachers author content and see all attempts; admins do everything.
var RolePermissions = map[string][]string{
	"student": {
		"module:view",
		"lesson:view",
		"quiz:view",
		"attempt:create",
		"attempt:submit",
		"attempt:view-own",
		"revision:create",
		"user:change_password",
	},
	"teacher": {
		"module:view",
		"lesson:view",
		"quiz:view",
		"quiz:create",
		"quiz:delete",
		"quiz:stats",
		"bank:view",
		"bank:manage",
		"attempt:view-all",
		"users:list",
	},
	"admin": {
		"*", // everything
	},
}
