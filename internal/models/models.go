package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&Milestone{},
		&ProjectMember{},
		&PendingMember{},
		&Task{},
		&Comment{},
		&Document{},
		&Notification{},
	}
}
