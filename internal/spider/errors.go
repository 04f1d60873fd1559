package spider

import "errors"

// ErrOffSiteRedirect is recorded on a page whose request was redirected to
// another authority. Such a page contributes no keywords and no links.
var ErrOffSiteRedirect = errors.New("redirected off site")
