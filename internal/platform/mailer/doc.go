// Package mailer renders the embedded email templates, composes MIME
// messages and hands them to a Transport: an SMTP relay in production or
// the log transport in development.
package mailer
