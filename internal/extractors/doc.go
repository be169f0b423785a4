// Package extractors pulls structured facts out of normalised document
// text: monetary figures, corporate roles and entity types, business
// activity classes, data storage arrangements and compliance policy
// mentions. All extraction is regex and keyword driven and fully
// deterministic, which the structured gap checks depend on.
package extractors
