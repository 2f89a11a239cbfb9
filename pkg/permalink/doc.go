/*
Package permalink captures the state of a view in a URL and reads it back.

Two link forms exist:

  - Permalinks carry a whole snapshot (title, source, analysis settings, active tab and
    interactive tree) as minified JSON in the URL fragment.
  - Fixed links name a file to load plus optional settings in the query string:
    "?foo.c&model=symbolic&rewrite=true".

Resolve decides how the client starts from a URL: a valid fragment wins, then a
valid fixed link, then the default example. Invalid links are logged and skipped.
*/
package permalink
