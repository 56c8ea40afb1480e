package rbac

// Role→permission policy. Ownership and enrollment checks live in the exam
// service; this table only gates by role.
var RolePermissions = map[string][]string{
	"student": {
		"exam:view-own",
		"exam:take",
		"user:change_password",
	},
	"teacher": {
		"course:create",
		"course:list-own",
		"course:enroll",
		"question:create",
		"exam:create",
		"exam:edit",
		"exam:list",
		"scores:view-all",
		"user:change_password",
		"users:bulk_upsert",
	},
	"admin": {
		"*", // everything
	},
}
