package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name RoundRepository --dir ../domain/auction --output domain/auction --outpkg auctionmock --filename round_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name BidRepository --dir ../domain/auction --output domain/auction --outpkg auctionmock --filename bid_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/budget --output domain/budget --outpkg budgetmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Publisher --dir ../domain/event --output domain/event --outpkg eventmock --filename publisher_mock.go
