/*
   Copyright 2024 The Daml authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package engine

import (
	"fmt"

	"github.com/geofftsai-da/daml/ledger"
)

// Error is the engine's failure value: a carrier around one of the four
// failure domains. Callers pattern-match on Cause to decide what to do;
// the engine never retries on its own.
type Error struct {
	Cause Cause
}

func (e *Error) Error() string { return e.Cause.Error() }

func (e *Error) Unwrap() error { return e.Cause }

// Cause is the closed union of failure domains. The only implementations are
// PackageError, PreprocessingError, InterpretationError and ValidationError.
type Cause interface {
	error
	isCause()
}

// PackageError reports a failure while loading or resolving packages.
type PackageError struct {
	Message string
}

func (e PackageError) Error() string { return "package: " + e.Message }
func (PackageError) isCause()        {}

// PreprocessingError reports a failure while preparing a command for
// interpretation.
type PreprocessingError struct {
	Message string
}

func (e PreprocessingError) Error() string { return "preprocessing: " + e.Message }
func (PreprocessingError) isCause()        {}

// InterpretationError reports a failure raised during interpretation. Detail
// is itself a closed union: ContractNotFound or GenericInterpretation.
type InterpretationError struct {
	Detail InterpretationDetail
}

func (e InterpretationError) Error() string { return "interpretation: " + e.Detail.Error() }
func (InterpretationError) isCause()        {}

type InterpretationDetail interface {
	error
	isInterpretationDetail()
}

// ContractNotFound reports a contract lookup the host could not satisfy.
type ContractNotFound struct {
	ContractID ledger.ContractID
}

func (e ContractNotFound) Error() string {
	return fmt.Sprintf("contract %s not found", e.ContractID)
}
func (ContractNotFound) isInterpretationDetail() {}

// GenericInterpretation carries an interpretation failure as a message.
type GenericInterpretation struct {
	Message string
}

func (e GenericInterpretation) Error() string { return e.Message }
func (GenericInterpretation) isInterpretationDetail() {}

// ValidationError reports a failure while validating a transaction.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return "validation: " + e.Message }
func (ValidationError) isCause()        {}

func ErrPackage(msg string) *Error       { return &Error{Cause: PackageError{Message: msg}} }
func ErrPreprocessing(msg string) *Error { return &Error{Cause: PreprocessingError{Message: msg}} }
func ErrValidation(msg string) *Error    { return &Error{Cause: ValidationError{Message: msg}} }

func ErrContractNotFound(cid ledger.ContractID) *Error {
	return &Error{Cause: InterpretationError{Detail: ContractNotFound{ContractID: cid}}}
}

func ErrInterpretation(msg string) *Error {
	return &Error{Cause: InterpretationError{Detail: GenericInterpretation{Message: msg}}}
}
