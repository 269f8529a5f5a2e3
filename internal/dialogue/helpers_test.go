package dialogue_test

import "time"

var testTime = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
