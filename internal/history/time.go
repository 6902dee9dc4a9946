package history

import "time"

// timeNow is replaced in tests to pin record timestamps.
var timeNow = time.Now
