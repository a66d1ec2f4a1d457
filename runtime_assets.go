package formsubmit

import (
	"io/fs"

	"github.com/goliatone/go-formsubmit/pkg/page"
)

// RuntimeAssetsFS exposes the browser overlay script that merges the embedded
// __formErrors report with live constraint validation.
//
// Typical mount:
//
//	mux.Handle("/runtime/",
//	  http.StripPrefix("/runtime/",
//	    http.FileServerFS(formsubmit.RuntimeAssetsFS()),
//	  ),
//	)
func RuntimeAssetsFS() fs.FS {
	return page.Assets()
}
