// Package action serves a form over plain HTTP without client-side scripting.
//
// GET renders the form. POST decodes the submission with payload.DecodeRequest:
// success calls the success hook (or redirects with 303), a rejection
// re-renders the form with status 422 and the server errors attached to each
// field, and an unreadable body answers 400 without field errors. Clients that
// ask for JSON receive the __formErrors report instead of HTML.
//
// WithTranslator localizes rejection messages for the locale picked from the
// lang query parameter or Accept-Language. Each submission is traced as an
// action.Submit span.
package action
