package scheme

// prelude is evaluated in the user environment before the interpreter
// becomes ready.
const prelude = `
(define (map proc list1 . lists)
  (define (cars ls)
    (if (null? ls) '() (cons (car (car ls)) (cars (cdr ls)))))
  (define (cdrs ls)
    (if (null? ls) '() (cons (cdr (car ls)) (cdrs (cdr ls)))))
  (define (any-null? ls)
    (if (null? ls) #f (if (null? (car ls)) #t (any-null? (cdr ls)))))
  (let loop ((ls (cons list1 lists)) (acc '()))
    (if (any-null? ls)
        (reverse acc)
        (loop (cdrs ls) (cons (apply proc (cars ls)) acc)))))

(define (for-each proc list1 . lists)
  (let loop ((ls (cons list1 lists)))
    (if (memq '() ls)
        #t
        (begin
          (apply proc (map car ls))
          (loop (map cdr ls))))))

(define (force promise) (promise))

(define (call-with-input-file name proc)
  (let* ((port (open-input-file name))
         (result (proc port)))
    (close-input-port port)
    result))

(define (call-with-output-file name proc)
  (let* ((port (open-output-file name))
         (result (proc port)))
    (close-output-port port)
    result))
`
