package state

// UserState - шаг диалога, на котором находится пользователь
type UserState string

const (
	StateNone                  UserState = ""
	StateRegistrationName      UserState = "registration_name"
	StateRegistrationCourse    UserState = "registration_course"
	StateRegistrationDirection UserState = "registration_direction"
	StateRegistrationRemind    UserState = "registration_remind"
)

// Draft - данные, накопленные по ходу диалога регистрации
type Draft struct {
	Name        string
	Course      int
	DirectionID int64
	ChangeOnly  bool // true - меняем направление, профиль уже есть
}
