package domain

// User is a registered library member. Identity is the matricola; name and
// email may change, the matricola may not (except through the explicit
// delete-and-reinsert flow in the user service).
type User struct {
	Matricola string
	FirstName string
	LastName  string
	Email     string
}

// DisplayName renders "LastName FirstName" for listings.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	if u.FirstName == "" {
		return u.LastName
	}
	return u.LastName + " " + u.FirstName
}
