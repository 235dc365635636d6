package fsrs

import (
	"encoding/json"
	"fmt"
	"os"

	jsonpatch "github.com/evanphx/json-patch/v5"
	gofsrs "github.com/open-spaced-repetition/go-fsrs/v3"
)

// loadParams returns the FSRS parameters, merge-patching the user's
// params.json (if any) over the library defaults. A partial file overriding
// only, say, RequestRetention is therefore valid.
func loadParams(path string) (gofsrs.Parameters, error) {
	var params = gofsrs.DefaultParam()

	var user, err = os.ReadFile(path)
	if os.IsNotExist(err) {
		return params, nil
	} else if err != nil {
		return params, fmt.Errorf("reading fsrs params %q: %w", path, err)
	}

	defaults, err := json.Marshal(params)
	if err != nil {
		return params, fmt.Errorf("encoding default fsrs params: %w", err)
	}
	merged, err := jsonpatch.MergePatch(defaults, user)
	if err != nil {
		return params, fmt.Errorf("merging fsrs params %q: %w", path, err)
	}
	if err = json.Unmarshal(merged, &params); err != nil {
		return params, fmt.Errorf("decoding merged fsrs params: %w", err)
	}
	return params, nil
}
