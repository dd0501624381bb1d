package entity

// Models lists every table owned by the service, in migration order.
func Models() []any {
	return []any{
		&Role{},
		&User{},
		&UserRole{},
		&Todo{},
		&SubTask{},
		&Notification{},
		&AuthEvent{},
	}
}
